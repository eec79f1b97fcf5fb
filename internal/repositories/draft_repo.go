package repositories

// DraftRepository defines the durable key-value storage used for form draft
// persistence. Get returns ("", nil) when the key is absent; callers treat a
// missing draft the same as no draft.
type DraftRepository interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
}
