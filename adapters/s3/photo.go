package s3

// photoMIMEExtensions 定義允許上傳的照片類型及其對應的副檔名
var photoMIMEExtensions = map[string]string{
	"image/jpeg": "jpeg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// PhotoExtension 檢查 MIME 類型是否為允許的照片格式，並回傳對應的副檔名
func PhotoExtension(mimeType string) (string, bool) {
	extension, ok := photoMIMEExtensions[mimeType]
	return extension, ok
}
