package phantombuster

import (
	"strings"
	"time"

	"github.com/user/signal-service/internal/entity"
	"go.uber.org/zap"
)

const activityMarker = "urn:li:activity:"

// unknownAuthor is the sentinel used when no author field resolves.
const unknownAuthor = "Unknown"

// ParsePosts normalizes a raw result payload into canonical post records.
// The payload is either a list of records or an object wrapping such a list
// under "posts" or "results". Records that yield no identifier are dropped;
// a malformed record never fails the rest of the batch. Input ordering is
// preserved and duplicates are left for storage-time dedup.
func ParsePosts(resultObject any, logger *zap.Logger) []entity.ScrapedPost {
	rawPosts := extractRecordList(resultObject)
	if rawPosts == nil {
		logger.Warn("Unexpected result payload shape from job runner")
		return nil
	}

	posts := make([]entity.ScrapedPost, 0, len(rawPosts))
	for _, raw := range rawPosts {
		record, ok := raw.(map[string]any)
		if !ok {
			logger.Warn("Skipping non-object record in result payload", zap.Any("record", raw))
			continue
		}
		post, ok := parseSinglePost(record)
		if !ok {
			logger.Warn("Skipping record with no resolvable post ID", zap.Any("record", record))
			continue
		}
		posts = append(posts, post)
	}

	logger.Info("Parsed posts from result payload", zap.Int("count", len(posts)))
	return posts
}

// extractRecordList performs shape detection on the payload: a bare list, or
// an object wrapping a list under a conventional key.
func extractRecordList(resultObject any) []any {
	switch shaped := resultObject.(type) {
	case []any:
		return shaped
	case map[string]any:
		for _, key := range []string{"posts", "results"} {
			if wrapped, ok := shaped[key].([]any); ok {
				return wrapped
			}
		}
		return []any{}
	default:
		return nil
	}
}

func parseSinglePost(raw map[string]any) (entity.ScrapedPost, bool) {
	postID := resolvePostID(raw)
	if postID == "" {
		return entity.ScrapedPost{}, false
	}

	authorName, authorURL := resolveAuthor(raw)
	content := firstString(raw, "postContent", "text", "content")

	return entity.ScrapedPost{
		PostID:        postID,
		AuthorName:    authorName,
		AuthorURL:     authorURL,
		Content:       content,
		PostedAt:      resolveTimestamp(raw),
		LikesCount:    firstInt(raw, "likeCount", "likesCount", "likes"),
		CommentsCount: firstInt(raw, "commentCount", "commentsCount", "comments"),
		Raw:           raw,
	}, true
}

// resolvePostID applies the identifier fallback chain: explicit ID fields,
// then the activity URN embedded in the post URL, then the URL itself.
func resolvePostID(raw map[string]any) string {
	if id := firstString(raw, "postId", "activityId", "urn", "id"); id != "" {
		return id
	}

	postURL := firstString(raw, "postUrl")
	if postURL == "" {
		return ""
	}
	if idx := strings.Index(postURL, activityMarker); idx >= 0 {
		id := postURL[idx+len(activityMarker):]
		if q := strings.Index(id, "?"); q >= 0 {
			id = id[:q]
		}
		return id
	}
	return postURL
}

// resolveAuthor handles the two shapes the "author" field arrives in: a
// plain display name string, or an object carrying name and profileUrl.
func resolveAuthor(raw map[string]any) (name, url string) {
	var fieldName, fieldURL string
	switch author := raw["author"].(type) {
	case string:
		fieldName = author
	case map[string]any:
		fieldName, _ = author["name"].(string)
		fieldURL, _ = author["profileUrl"].(string)
	}

	name = firstString(raw, "authorName", "profileName")
	if name == "" {
		name = fieldName
	}
	if name == "" {
		name = firstString(raw, "posterName")
	}
	if name == "" {
		name = unknownAuthor
	}

	url = firstString(raw, "authorUrl", "authorProfileUrl", "profileUrl")
	if url == "" {
		url = fieldURL
	}
	if url == "" {
		url = firstString(raw, "posterProfileUrl")
	}
	return name, url
}

// resolveTimestamp accepts epoch milliseconds or ISO-8601 strings from any of
// the candidate date fields. Parse failure leaves the timestamp unset rather
// than dropping the record.
func resolveTimestamp(raw map[string]any) *time.Time {
	for _, key := range []string{"postDate", "postedAt", "date", "timestamp"} {
		switch value := raw[key].(type) {
		case float64:
			t := time.UnixMilli(int64(value)).UTC()
			return &t
		case string:
			if value == "" {
				continue
			}
			for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
				if t, err := time.Parse(layout, value); err == nil {
					return &t
				}
			}
		}
	}
	return nil
}

func firstString(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		if value, ok := raw[key].(string); ok && value != "" {
			return value
		}
	}
	return ""
}

func firstInt(raw map[string]any, keys ...string) int {
	for _, key := range keys {
		if value, ok := raw[key].(float64); ok {
			return int(value)
		}
	}
	return 0
}
