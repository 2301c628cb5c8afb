package config

// MongoConfig contains MongoDB configuration.
type MongoConfig struct {
	URI      string `env:"URI"      envDefault:"mongodb://localhost:27017"`
	Database string `env:"DATABASE" envDefault:"dutyboard"`
}

// RedisConfig contains Redis configuration for the token denylist.
type RedisConfig struct {
	Addr     string `env:"ADDR"     envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`
}
