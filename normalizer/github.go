package normalizer

import (
	"strings"

	"github.com/lac-hong-legacy/devscope/dto"
)

// ParseGithubUsers extracts GitHub profile records from the companion
// "github" field. It accepts {"users": [...]} or a bare array and skips
// anything that is not an object.
func ParseGithubUsers(v any) []dto.Developer {
	var entries []any
	if obj, ok := asObject(v); ok {
		entries, _ = asArray(obj["users"])
	} else {
		entries, _ = asArray(v)
	}

	users := make([]dto.Developer, 0, len(entries))
	for _, entry := range entries {
		obj, ok := asObject(entry)
		if !ok {
			continue
		}
		if dev, ok := developerFromObject(obj); ok {
			users = append(users, dev)
		}
	}
	return users
}

func developerFromObject(obj map[string]any) (dto.Developer, bool) {
	id, hasID := canonicalID(obj["id"])
	login, hasLogin := stringField(obj, "login", "username")
	if !hasID && !hasLogin {
		return dto.Developer{}, false
	}
	if !hasLogin {
		login = id
	}
	if !hasID {
		id = login
	}
	name, ok := stringField(obj, "name")
	if !ok {
		name = login
	}
	dev := dto.Developer{
		ID:          id,
		Username:    login,
		Name:        name,
		Followers:   intField(obj, "followers"),
		Following:   intField(obj, "following"),
		PublicRepos: intField(obj, "public_repos", "publicRepos"),
	}
	dev.AvatarURL, _ = stringField(obj, "avatar_url", "avatarUrl")
	dev.ProfileURL, _ = stringField(obj, "html_url", "profileUrl", "url")
	dev.Bio, _ = stringField(obj, "bio")
	dev.Location, _ = stringField(obj, "location")
	dev.Company, _ = stringField(obj, "company")
	dev.Blog, _ = stringField(obj, "blog")
	return dev, true
}

// profileIndex joins analysis records to GitHub profiles by numeric id
// first and login second.
type profileIndex struct {
	byID    map[string]dto.Developer
	byLogin map[string]dto.Developer
}

func newProfileIndex(users []dto.Developer) profileIndex {
	idx := profileIndex{
		byID:    make(map[string]dto.Developer, len(users)),
		byLogin: make(map[string]dto.Developer, len(users)),
	}
	for _, u := range users {
		if _, seen := idx.byID[u.ID]; !seen && u.ID != "" {
			idx.byID[u.ID] = u
		}
		key := strings.ToLower(u.Username)
		if _, seen := idx.byLogin[key]; !seen && key != "" {
			idx.byLogin[key] = u
		}
	}
	return idx
}

func (idx profileIndex) lookup(actor string) (dto.Developer, bool) {
	if id, ok := canonicalID(actor); ok {
		if dev, ok := idx.byID[id]; ok {
			return dev, true
		}
	}
	dev, ok := idx.byLogin[strings.ToLower(actor)]
	return dev, ok
}

// resolve never returns an empty identity: unmatched actors become a
// minimal developer named after the raw identifier.
func (idx profileIndex) resolve(actor string) dto.Developer {
	if dev, ok := idx.lookup(actor); ok {
		return dev
	}
	return dto.Developer{ID: actor, Username: actor, Name: actor}
}
