// Package normalizer reshapes raw upstream analysis payloads into the
// canonical report model. Every function here is pure and total: malformed
// input degrades to empty values or sentinels, never to an error.
package normalizer

import (
	"sort"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/lac-hong-legacy/devscope/dto"
)

var decoder = sonic.Config{UseNumber: true}.Froze()

type ecosystemRecord struct {
	analytics dto.EcosystemAnalytics
	status    dto.AnalysisStatus
	progress  *int
}

type contestantRecord struct {
	profile    dto.Developer
	ecosystems []ecosystemRecord
	status     dto.AnalysisStatus
	progress   *int
	eta        int
}

type document struct {
	id          string
	jobType     string
	description string
	status      dto.AnalysisStatus
	requestData []string
	contestants []contestantRecord
}

// Normalize converts a raw payload into an EventReport. A payload that is
// not a JSON object yields an empty report.
func Normalize(raw []byte) dto.EventReport {
	doc := parse(raw)
	report := dto.EventReport{
		ID:          doc.id,
		Type:        doc.jobType,
		Description: doc.description,
		Contestants: make([]dto.Contestant, 0, len(doc.contestants)),
		RequestData: doc.requestData,
	}
	for _, c := range doc.contestants {
		analytics := make([]dto.EcosystemAnalytics, 0, len(c.ecosystems))
		for _, eco := range c.ecosystems {
			a := eco.analytics
			a.ValidRepoCount = len(ValidRepos(a.Repos))
			analytics = append(analytics, a)
		}
		report.Contestants = append(report.Contestants, dto.Contestant{
			Profile:   c.profile,
			Analytics: analytics,
		})
	}
	return report
}

func decode(raw []byte) (map[string]any, bool) {
	var v any
	if err := decoder.Unmarshal(raw, &v); err != nil {
		return nil, false
	}
	return asObject(v)
}

func parse(raw []byte) document {
	root, ok := decode(raw)
	if !ok {
		return document{}
	}

	container := root
	if data, ok := asObject(root["data"]); ok {
		container = data
	}

	doc := document{}
	doc.id, _ = firstString([]map[string]any{root, container}, "id", "job_id", "jobId")
	doc.jobType, _ = firstString([]map[string]any{root, container}, "type")
	doc.description, _ = firstString([]map[string]any{root, container}, "description")
	if s, ok := firstString([]map[string]any{root, container}, "status"); ok {
		doc.status, _ = dto.ParseAnalysisStatus(s)
	}
	doc.requestData = parseRequestData(firstValue([]map[string]any{root, container}, "request_data", "requestData"))

	githubUsers := ParseGithubUsers(firstValue([]map[string]any{root, container}, "github"))
	profiles := newProfileIndex(githubUsers)

	seen := make(map[string]int)
	anonymous := 0
	for _, entry := range locateUsers(root, container) {
		obj, ok := asObject(entry)
		if !ok {
			continue
		}
		record, identified := parseContestant(obj, profiles)
		if !identified {
			// no identifier to dedupe on: each record stands alone
			anonymous++
			record.profile = anonymousDeveloper(anonymous)
			doc.contestants = append(doc.contestants, record)
			continue
		}
		key := strings.ToLower(record.profile.Username)
		if i, dup := seen[key]; dup {
			doc.contestants[i].ecosystems = mergeEcosystems(doc.contestants[i].ecosystems, record.ecosystems)
			continue
		}
		seen[key] = len(doc.contestants)
		doc.contestants = append(doc.contestants, record)
	}

	// Roster members that have a profile but no analysis record yet are
	// still contestants, with no ecosystems.
	for _, dev := range githubUsers {
		key := strings.ToLower(dev.Username)
		if _, ok := seen[key]; ok {
			continue
		}
		if _, ok := seen[strings.ToLower(dev.ID)]; ok {
			continue
		}
		seen[key] = len(doc.contestants)
		doc.contestants = append(doc.contestants, contestantRecord{profile: dev})
	}
	return doc
}

// locateUsers finds the per-user list: data.users, users at the root, data
// itself as an array, or an already canonical contestants list.
func locateUsers(root, container map[string]any) []any {
	for _, candidate := range []any{container["users"], root["users"], root["data"], container["contestants"], root["contestants"]} {
		if users, ok := asArray(candidate); ok {
			return users
		}
	}
	return nil
}

// parseContestant reports false when the record carries no identifier.
func parseContestant(obj map[string]any, profiles profileIndex) (contestantRecord, bool) {
	record := contestantRecord{}
	identified := true
	if profile, ok := asObject(obj["profile"]); ok {
		if dev, ok := developerFromObject(profile); ok {
			record.profile = dev
		}
	}
	if record.profile.Username == "" {
		actor, ok := stringField(obj, "actor_id", "actor", "user_id", "id", "login", "username")
		if ok {
			record.profile = profiles.resolve(actor)
		} else {
			identified = false
		}
	}

	record.status = explicitStatus(obj)
	record.progress = explicitProgress(obj, "progress", "analysis_progress", "analysisProgress")
	record.eta = intField(obj, "estimated_time", "estimatedTime", "eta")

	if v, ok := field(obj, "ecosystem_scores", "ecosystems", "analytics"); ok {
		record.ecosystems = parseEcosystems(v)
	}
	return record, identified
}

// anonymousDeveloper names the n-th record without an identifier. Names
// follow payload order, so repeated polls of one payload agree.
func anonymousDeveloper(n int) dto.Developer {
	id := "unknown-" + strconv.Itoa(n)
	return dto.Developer{ID: id, Username: id, Name: id}
}

// parseEcosystems accepts an array of ecosystem objects or an object keyed
// by ecosystem name. The aggregate pseudo ecosystem is dropped here so it
// can never reach a contestant.
func parseEcosystems(v any) []ecosystemRecord {
	var records []ecosystemRecord
	add := func(name string, obj map[string]any) {
		name = strings.TrimSpace(name)
		if name == "" || strings.EqualFold(name, dto.AggregateEcosystem) {
			return
		}
		for _, existing := range records {
			if strings.EqualFold(existing.analytics.Name, name) {
				return
			}
		}
		records = append(records, parseEcosystem(name, obj))
	}

	if entries, ok := asArray(v); ok {
		for _, entry := range entries {
			obj, ok := asObject(entry)
			if !ok {
				continue
			}
			name, _ := stringField(obj, "ecosystem", "name")
			add(name, obj)
		}
		return records
	}
	if byName, ok := asObject(v); ok {
		for name, entry := range byName {
			obj, ok := asObject(entry)
			if !ok {
				obj = map[string]any{"total_score": entry}
			}
			add(name, obj)
		}
		sort.Slice(records, func(i, j int) bool {
			return records[i].analytics.Name < records[j].analytics.Name
		})
	}
	return records
}

func parseEcosystem(name string, obj map[string]any) ecosystemRecord {
	score := 0.0
	if v, ok := field(obj, "total_score", "totalScore", "score"); ok {
		if s, ok := asScore(v); ok {
			score, _ = strconv.ParseFloat(s, 64)
		}
	}
	repos, _ := field(obj, "repos", "repositories")
	return ecosystemRecord{
		analytics: dto.EcosystemAnalytics{
			Name:  name,
			Score: score,
			Repos: normalizeRepos(repos),
		},
		status:   explicitStatus(obj),
		progress: explicitProgress(obj, "progress"),
	}
}

func mergeEcosystems(existing, incoming []ecosystemRecord) []ecosystemRecord {
	for _, eco := range incoming {
		found := false
		for _, e := range existing {
			if strings.EqualFold(e.analytics.Name, eco.analytics.Name) {
				found = true
				break
			}
		}
		if !found {
			existing = append(existing, eco)
		}
	}
	return existing
}

func explicitStatus(obj map[string]any) dto.AnalysisStatus {
	s, ok := stringField(obj, "status", "analysis_status", "analysisStatus")
	if !ok {
		return ""
	}
	status, _ := dto.ParseAnalysisStatus(s)
	return status
}

func explicitProgress(obj map[string]any, keys ...string) *int {
	v, ok := field(obj, keys...)
	if !ok {
		return nil
	}
	f, ok := asFloat(v)
	if !ok {
		return nil
	}
	p := clampProgress(int(f))
	return &p
}

// parseRequestData accepts a bare array of strings or {"urls": [...]}.
func parseRequestData(v any) []string {
	if obj, ok := asObject(v); ok {
		v = obj["urls"]
	}
	entries, ok := asArray(v)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if s, ok := asString(e); ok {
			out = append(out, s)
		}
	}
	return out
}

func firstValue(objs []map[string]any, keys ...string) any {
	for _, obj := range objs {
		if v, ok := field(obj, keys...); ok {
			return v
		}
	}
	return nil
}

func firstString(objs []map[string]any, keys ...string) (string, bool) {
	for _, obj := range objs {
		if s, ok := stringField(obj, keys...); ok {
			return s, true
		}
	}
	return "", false
}
