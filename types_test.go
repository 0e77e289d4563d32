package mediagate_test

import (
	"net/http"
	"testing"

	"github.com/invoicekit/mediagate"
	"github.com/stretchr/testify/assert"
)

func TestHTTPMetadata_Write(t *testing.T) {
	t.Parallel()

	h := http.Header{}
	h.Set("Cache-Control", "private, max-age=3600")

	mediagate.HTTPMetadata{
		ContentType:     "video/mp4",
		ContentLanguage: "en",
	}.Write(h)

	assert.Equal(t, "video/mp4", h.Get("Content-Type"))
	assert.Equal(t, "en", h.Get("Content-Language"))
	assert.Equal(t, "private, max-age=3600", h.Get("Cache-Control"), "empty fields leave headers alone")
	assert.Empty(t, h.Values("Content-Encoding"))
	assert.Empty(t, h.Values("Content-Disposition"))
}

func TestObjectInfo_OriginalName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		meta map[string]string
		want string
	}{
		{name: "nil metadata", meta: nil, want: ""},
		{name: "exact key", meta: map[string]string{"originalName": "Review.mp4"}, want: "Review.mp4"},
		{name: "lower-cased by s3", meta: map[string]string{"originalname": "clip.mov"}, want: "clip.mov"},
		{name: "unrelated keys", meta: map[string]string{"owner": "user-1"}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			info := mediagate.ObjectInfo{CustomMetadata: tt.meta}
			assert.Equal(t, tt.want, info.OriginalName())
		})
	}
}
