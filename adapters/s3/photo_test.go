package s3_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shehrozeikram/CarWheels-sub000/adapters/s3"
)

func TestPhotoExtension(t *testing.T) {
	extension, ok := s3.PhotoExtension("image/jpeg")
	assert.True(t, ok)
	assert.Equal(t, "jpeg", extension)

	extension, ok = s3.PhotoExtension("image/webp")
	assert.True(t, ok)
	assert.Equal(t, "webp", extension)

	// 非照片類型一律拒絕
	for _, mimeType := range []string{"image/svg+xml", "application/pdf", "text/html", ""} {
		_, ok := s3.PhotoExtension(mimeType)
		assert.False(t, ok, mimeType)
	}
}
