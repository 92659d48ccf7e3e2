package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestAssign_BoardNo verifies the numeric board token is the preferred
// identity source
func TestAssign_BoardNo(t *testing.T) {
	key := Assign("https://www.kr.playblackdesert.com/ko-KR/News/Detail?boardNo=12345", "korean")
	assert.Equal(t, "korean_12345", key)

	// Underscore-prefixed variant used by the Global Lab board.
	key = Assign("https://blackdesert.pearlabyss.com/GlobalLab/en-US/News/Detail?_boardNo=678", "globallab")
	assert.Equal(t, "globallab_678", key)
}

// TestAssign_GroupContentNo verifies the secondary token is used when no
// board number is present
func TestAssign_GroupContentNo(t *testing.T) {
	key := Assign("https://example.com/News/Detail?groupContentNo=999&lang=ko", "korean")
	assert.Equal(t, "korean_999", key)
}

// TestAssign_StableAcrossTrackingParams verifies the same notice keeps
// the same key when the URL grows extra query parameters
func TestAssign_StableAcrossTrackingParams(t *testing.T) {
	plain := Assign("https://example.com/Detail?boardNo=42", "korean")
	tracked := Assign("https://example.com/Detail?utm_source=feed&boardNo=42&session=abc", "korean")
	assert.Equal(t, plain, tracked)
}

// TestAssign_URLHashFallback verifies tokenless URLs get a deterministic
// hash-based key
func TestAssign_URLHashFallback(t *testing.T) {
	url := "https://example.com/news/some-slug-page"

	first := Assign(url, "globallab")
	second := Assign(url, "globallab")
	assert.Equal(t, first, second, "same URL must yield the same key")
	assert.Regexp(t, `^globallab_url_[0-9a-f]{12}$`, first)

	other := Assign("https://example.com/news/other-page", "globallab")
	assert.NotEqual(t, first, other, "different URLs must yield different keys")
}

// TestAssign_EmptyURL verifies the degraded fallback produces a
// timestamped key instead of failing
func TestAssign_EmptyURL(t *testing.T) {
	orig := nowFunc
	nowFunc = func() time.Time { return time.Unix(1754400000, 0) }
	defer func() { nowFunc = orig }()

	key := Assign("", "korean")
	assert.Equal(t, "korean_error_1754400000", key)
}
