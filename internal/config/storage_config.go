package config

const (
	TokenStoreFile  = "file"
	TokenStoreRedis = "redis"
)

type StorageConfig interface {
	GetTokenStore() string
	GetTokenKey() string
	GetDataFolder() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
}

type Storage struct{}

var _ StorageConfig = Storage{}

// GetTokenStore selects the durable storage backend: "file" (default) or "redis"
func (Storage) GetTokenStore() string {
	return GetEnv("TOKEN_STORE", TokenStoreFile)
}

func (Storage) GetTokenKey() string {
	return GetEnv("TOKEN_KEY", "gsor.access_token")
}

func (Storage) GetDataFolder() string {
	return GetEnv("FOLDER", "./data")
}

func (Storage) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "localhost:6379")
}

func (Storage) GetRedisPassword() string {
	return GetEnv("REDIS_PASSWORD", "")
}

func (Storage) GetRedisDB() int {
	return GetEnvInt("REDIS_DB", 0)
}
