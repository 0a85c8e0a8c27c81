package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort        string
	AppEnv         string
	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables
	S3BucketName   string
	SNSTopicARN    string // empty disables lead.registered events

	ResendAPIKey string // when empty, mail goes through SMTP
	MailFrom     string
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration
	AdminPasswordHash string // bcrypt

	AllowedOrigins         []string // CORS allowed origins
	OTPTTL                 time.Duration
	EnforceDomainAllowlist bool
	CommunityLinks         map[string]string
	CommunityDefaultLink   string
	RateLimitRPS           float64
	RateLimitBurst         int
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	CompanyDomains  string
	EmailOTPs       string
	InviteCodes     string
	LeadSubmissions string
	SignupSessions  string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:        getEnv("APP_PORT", "3000"),
		AppEnv:         getEnv("APP_ENV", "development"),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			CompanyDomains:  getEnv("DYNAMO_TABLE_COMPANY_DOMAINS", "company_domains"),
			EmailOTPs:       getEnv("DYNAMO_TABLE_EMAIL_OTPS", "email_otps"),
			InviteCodes:     getEnv("DYNAMO_TABLE_INVITE_CODES", "invite_codes"),
			LeadSubmissions: getEnv("DYNAMO_TABLE_LEAD_SUBMISSIONS", "lead_submissions"),
			SignupSessions:  getEnv("DYNAMO_TABLE_SIGNUP_SESSIONS", "signup_sessions"),
		},
		S3BucketName: getEnv("S3_BUCKET_NAME", ""),
		SNSTopicARN:  getEnv("SNS_TOPIC_ARN", ""),

		ResendAPIKey: getEnv("RESEND_API_KEY", ""),
		MailFrom:     getEnv("MAIL_FROM", "Corposale <onboarding@resend.dev>"),
		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 12)) * time.Hour,
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),

		AllowedOrigins:         strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		OTPTTL:                 getEnvDuration("OTP_TTL", 10*time.Minute),
		EnforceDomainAllowlist: getEnvBool("ENFORCE_DOMAIN_ALLOWLIST", true),
		CommunityLinks:         parseLinks(getEnv("COMMUNITY_LINKS", "")),
		CommunityDefaultLink:   getEnv("COMMUNITY_DEFAULT_LINK", ""),
		RateLimitRPS:           getEnvFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:         getEnvInt("RATE_LIMIT_BURST", 10),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// parseLinks reads "city=url,city=url" pairs. Malformed pairs are skipped.
func parseLinks(raw string) map[string]string {
	links := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(pair, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			continue
		}
		links[strings.ToLower(k)] = v
	}
	return links
}
