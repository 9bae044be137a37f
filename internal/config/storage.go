package config

const (
	StorageBackendFile  = "file"
	StorageBackendRedis = "redis"
)

type Storage struct {
	// Backend selects the snapshot store implementation, "file" or "redis".
	Backend      string `env:"STORAGE_BACKEND" envDefault:"file"`
	Dir          string `env:"STORAGE_DIR" envDefault:"data"`
	Bucket       string `env:"STORAGE_BUCKET" envDefault:"dealhunt"`
	MemoryObject string `env:"STORAGE_MEMORY_OBJECT" envDefault:"deal_memory.json"`
}
