package auth

// Credentials holds the single configured access key / secret key pair.
// It is populated once at startup and read-only afterwards.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
}
