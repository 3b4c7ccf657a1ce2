package api

type ServerConfig struct {
	CarAPI        CarAPIConfig
	S3            S3Config
	Notifications NotificationConfig
}

type CarAPIConfig struct {
	// BaseURL 為空時不啟用遠端目錄，只使用內建的靜態目錄
	BaseURL string
}

type S3Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	Bucket          string
	PublicBaseURL   string
}

type NotificationConfig struct {
	// Cap 是通知收件匣的最大長度，0 表示使用預設值
	Cap int
}
