package service_registry

import (
	"context"
	"errors"

	"github.com/benmeehan/device-locations/internal/services"
	"github.com/benmeehan/device-locations/internal/utils"
	"github.com/benmeehan/device-locations/pkg/cache"
	"github.com/benmeehan/device-locations/pkg/dataset"
	"github.com/benmeehan/device-locations/pkg/file"
	"github.com/benmeehan/device-locations/pkg/mqtt"
	"github.com/benmeehan/device-locations/pkg/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Dependencies holds the shared clients built from configuration.
type Dependencies struct {
	Source    dataset.Source
	Cache     cache.PositionCache
	Publisher services.LatestPublisher // nil when mqtt is disabled

	closers []func() error
}

// BuildDependencies connects the dataset source, the position cache and,
// when enabled, the MQTT publisher.
func BuildDependencies(ctx context.Context, config *utils.Config, fileClient file.FileOperations, logger zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{}

	switch config.Dataset.Source {
	case utils.DatasetSourceFile:
		deps.Source = dataset.NewFileSource(fileClient, config.Dataset.FilePath, logger)
	default:
		storage := s3.NewObjectStorage()
		s3Cfg := config.Dataset.S3
		if err := storage.Connect(s3Cfg.Endpoint, s3Cfg.AccessKeyID, s3Cfg.SecretAccessKey, s3Cfg.Region, s3Cfg.UseSSL); err != nil {
			return nil, err
		}
		deps.Source = dataset.NewS3Source(storage, s3Cfg.Bucket, s3Cfg.ObjectKey, logger)
	}
	logger.Info().Str("source", config.Dataset.Source).Msg("Dataset source configured")

	switch config.Cache.Backend {
	case utils.CacheBackendMemory:
		deps.Cache = cache.NewMemoryCache()
	default:
		redisCfg := config.Cache.Redis
		redisCache, err := cache.Connect(ctx, redisCfg.Address, redisCfg.Password, redisCfg.DB, redisCfg.KeyPrefix)
		if err != nil {
			return nil, err
		}
		deps.Cache = redisCache
		deps.closers = append(deps.closers, redisCache.Close)
	}
	logger.Info().Str("backend", config.Cache.Backend).Msg("Position cache configured")

	if config.MQTT.Enabled {
		clientID := config.MQTT.ClientID + "-" + uuid.New().String()
		mqttClient := mqtt.NewMqttService(fileClient)
		if err := mqttClient.Initialize(config.MQTT.Broker, clientID, config.MQTT.CACertificate, config.MQTT.Timeout); err != nil {
			_ = deps.Close()
			return nil, err
		}
		deps.Publisher = services.NewMQTTLatestPublisher(config.MQTT.Topic, config.MQTT.QOS, config.MQTT.Timeout, mqttClient, logger)
		deps.closers = append(deps.closers, func() error {
			mqttClient.Disconnect(250)
			return nil
		})
		logger.Info().Str("client_id", clientID).Str("topic", config.MQTT.Topic).Msg("MQTT publisher connected")
	}

	return deps, nil
}

// Close releases the clients in reverse order of creation.
func (d *Dependencies) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
