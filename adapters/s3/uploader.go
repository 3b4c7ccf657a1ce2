// Package s3 負責刊登照片的上傳與大小、格式限制。
package s3

import (
	"bytes"
	"context"
	"fmt"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// MaxPhotoBytes 是單張刊登照片允許的最大長度
const MaxPhotoBytes int64 = 5 << 20

// Uploader 將刊登照片上傳到 S3 並回傳公開網址
type Uploader struct {
	// Client 是 S3 客戶端。
	Client *s3.Client
	// Bucket 是 S3 存儲桶的名稱。
	Bucket string
	// PublicEndpoint 是 S3 存儲桶的公開 Endpoint。
	PublicEndpoint *url.URL
}

func NewUploader(client *s3.Client, bucket, publicBaseURL string) (*Uploader, error) {
	const op = "NewUploader"
	publicEndpoint, err := url.Parse(publicBaseURL)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to parse public base URL, err=%w", op, err)
	}
	return &Uploader{Client: client, Bucket: bucket, PublicEndpoint: publicEndpoint}, nil
}

// UploadListingPhoto 上傳一張刊登照片。
// MIME 類型必須在允許清單內，物件鍵以刊登 id 分層並附上隨機名稱。
func (u *Uploader) UploadListingPhoto(ctx context.Context, listingID, contentType string, content []byte) (string, error) {
	const op = "UploadListingPhoto"
	extension, ok := PhotoExtension(contentType)
	if !ok {
		return "", fmt.Errorf("[%s] Unsupported photo type %s", op, contentType)
	}

	key := fmt.Sprintf("listings/%s/%s.%s", listingID, uuid.NewString(), extension)
	_, err := u.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("[%s] Fail to upload photo to S3, err=%w", op, err)
	}

	uri := *u.PublicEndpoint
	uri.Path = key
	return uri.String(), nil
}
