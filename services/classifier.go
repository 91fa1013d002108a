package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/lac-hong-legacy/devscope/shared"
)

// KeywordClassifier extracts the topic keyword of a query. An empty keyword
// means the query is unsupported; err is reserved for classifier failures.
type KeywordClassifier interface {
	Classify(ctx context.Context, text string) (string, error)
}

// NewKeywordClassifier returns the remote classifier when an endpoint is
// configured and the local rule set otherwise.
func NewKeywordClassifier(endpoint string, timeout time.Duration) KeywordClassifier {
	if endpoint == "" {
		return NewRuleClassifier()
	}
	return NewHTTPClassifier(endpoint, timeout)
}

// keywordRule maps aliases to a keyword. ambiguous aliases are ordinary
// English words too and only count next to a Web3 context word.
type keywordRule struct {
	keyword   string
	aliases   []string
	ambiguous []string
}

var defaultKeywordRules = []keywordRule{
	{"Ethereum", []string{"ethereum", "eth", "solidity", "evm", "vyper"}, nil},
	{"Base", []string{"base chain", "base l2", "coinbase l2"}, []string{"base"}},
	{"Solana", []string{"solana"}, []string{"sol", "anchor"}},
	{"Polygon", []string{"polygon", "matic"}, nil},
	{"Arbitrum", []string{"arbitrum"}, []string{"arb"}},
	{"Optimism", []string{"op stack", "op mainnet"}, []string{"optimism"}},
	{"Aptos", []string{"aptos"}, nil},
	{"Sui", []string{"sui network", "sui move"}, []string{"sui"}},
	{"Near", []string{"near protocol"}, []string{"near"}},
	{"Cosmos", []string{"cosmwasm", "ibc", "cosmos sdk"}, []string{"cosmos"}},
	{"Polkadot", []string{"polkadot"}, []string{"substrate", "ink"}},
	{"Bitcoin", []string{"bitcoin", "btc"}, []string{"lightning"}},
	{"Starknet", []string{"starknet"}, []string{"cairo"}},
	{"zkSync", []string{"zksync"}, nil},
}

var web3ContextWords = []string{
	"web3", "blockchain", "crypto", "onchain", "on chain", "chain", "chains", "defi", "nft", "nfts",
	"dapp", "dapps", "smart contract", "smart contracts", "token", "tokens", "l1", "l2", "layer 2",
	"rollup", "rollups", "dao", "wallet", "validator", "validators", "ecosystem", "hackathon",
}

var wordPattern = regexp.MustCompile(`[a-z0-9]+`)

// RuleClassifier matches whole words and phrases against a fixed table.
// The earliest mention in the text wins.
type RuleClassifier struct {
	rules   []keywordRule
	context []string
}

func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{rules: defaultKeywordRules, context: web3ContextWords}
}

func (c *RuleClassifier) Classify(_ context.Context, text string) (string, error) {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)
	if len(words) == 0 {
		return "", nil
	}
	normalized := " " + strings.Join(words, " ") + " "

	web3 := false
	for _, w := range c.context {
		if strings.Contains(normalized, " "+w+" ") {
			web3 = true
			break
		}
	}

	best, bestAt := "", -1
	match := func(keyword string, aliases []string) {
		for _, alias := range aliases {
			at := strings.Index(normalized, " "+alias+" ")
			if at >= 0 && (bestAt < 0 || at < bestAt) {
				best, bestAt = keyword, at
			}
		}
	}
	for _, rule := range c.rules {
		match(rule.keyword, rule.aliases)
		if web3 {
			match(rule.keyword, rule.ambiguous)
		}
	}
	return best, nil
}

// HTTPClassifier delegates to a remote classification endpoint that
// accepts {"text": ...} and answers {"keyword": ...}.
type HTTPClassifier struct {
	httpClient *http.Client
	endpoint   string
}

func NewHTTPClassifier(endpoint string, timeout time.Duration) *HTTPClassifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClassifier{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
	}
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Keyword string `json:"keyword"`
}

func (c *HTTPClassifier) Classify(ctx context.Context, text string) (string, error) {
	body, err := shared.JSON().Marshal(classifyRequest{Text: text})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("classifier: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: classifier: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: classifier status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamInvalidResponse, err)
	}
	var out classifyResponse
	if err := shared.JSON().Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamInvalidResponse, err)
	}
	return strings.TrimSpace(out.Keyword), nil
}
