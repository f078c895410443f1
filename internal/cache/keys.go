package cache

import "fmt"

// AssistKey is the cache key of an assistant answer, addressed by request hash.
func AssistKey(provider, requestHash string) string {
	return fmt.Sprintf("assist:%s:%s", provider, requestHash)
}

func RateLimitKey(actor string) string {
	return fmt.Sprintf("ratelimit:%s", actor)
}
