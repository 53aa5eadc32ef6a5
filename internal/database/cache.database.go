package database

import (
	"context"
	"fmt"
	"time"

	"washplan/config"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/valkey-io/valkey-go"
)

// Valkey database indexes.
const (
	// GENERAL_CACHE_INDEX holds cached week schedules.
	GENERAL_CACHE_INDEX = iota
	// EVENTS_CACHE_INDEX carries schedule update pub/sub.
	EVENTS_CACHE_INDEX
)

func newCacheClient(address string, port, index int) (valkey.Client, error) {
	return valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{fmt.Sprintf("%s:%d", address, port)},
		SelectDB:    index,
	})
}

func (s *DB) initializeCacheDB(config config.Config) error {
	log := s.log.Function("initializeCacheDB")

	if config.DatabaseCacheAddress == "" || config.DatabaseCachePort == 0 {
		log.Warn("cache address not configured, running without valkey")
		return nil
	}

	var cacheDB Cache
	var err error

	cacheDB.General, err = newCacheClient(config.DatabaseCacheAddress, config.DatabaseCachePort, GENERAL_CACHE_INDEX)
	if err != nil {
		return log.Err("failed to create general valkey client", err)
	}

	cacheDB.Events, err = newCacheClient(config.DatabaseCacheAddress, config.DatabaseCachePort, EVENTS_CACHE_INDEX)
	if err != nil {
		cacheDB.General.Close()
		return log.Err("failed to create events valkey client", err)
	}

	s.Cache = cacheDB

	if config.DatabaseCacheReset != -1 {
		go clearCacheDB(config.DatabaseCacheReset, cacheDB)
	}

	log.Info("Valkey clients initialized", "address", config.DatabaseCacheAddress, "port", config.DatabaseCachePort)
	return nil
}

func (c Cache) client(index int) (CacheClient, string) {
	switch index {
	case GENERAL_CACHE_INDEX:
		return c.General, "General"
	case EVENTS_CACHE_INDEX:
		return c.Events, "Events"
	}
	return nil, ""
}

func clearCacheDB(index int, cacheDB Cache) {
	log := logger.New("database").File("cache.database").Function("clearCacheDB")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, name := cacheDB.client(index)
	if client == nil {
		log.Warn("Invalid cache database index", "index", index)
		return
	}

	if err := client.Do(ctx, client.B().Flushdb().Build()).Error(); err != nil {
		log.Er("Failed to clear cache database", err, "index", index, "dbName", name)
		return
	}

	log.Info("Cleared cache database", "index", index, "dbName", name)
}
