package config

import "os"

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type Config struct {
	FacebookAppID       string
	FacebookAppSecret   string
	FacebookRedirectURI string
	HuggingFaceAPIKey   string
	OpenAIAPIKey        string
	PostgresURI         string
	RedisURI            string
	BaseURL             string
	FrontendURL         string
	R2                  R2
	SecretKey           string
	CookieName          string
}

func LoadConfig() *Config {
	return &Config{
		FacebookAppID:       getEnv("FACEBOOK_APP_ID", ""),
		FacebookAppSecret:   getEnv("FACEBOOK_APP_SECRET", ""),
		FacebookRedirectURI: getEnv("FACEBOOK_REDIRECT_URI", "http://localhost:3000/api/auth/facebook/callback"),
		HuggingFaceAPIKey:   getEnv("HUGGINGFACE_API_KEY", ""),
		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		PostgresURI:         getEnv("POSTGRES_URI", ""),
		RedisURI:            getEnv("REDIS_URI", ""),
		BaseURL:             getEnv("BASE_URL", "http://localhost:3000"),
		FrontendURL:         getEnv("FRONTEND_URL", "http://localhost:5173"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		SecretKey:  getEnv("SECRET_KEY", ""),
		CookieName: getEnv("COOKIE_NAME", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
