package badgerdb

import (
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/go-co-op/gocron"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
)

const (
	maxRetries          = 5
	retryDelay          = 100 * time.Millisecond
	valueLogGCThreshold = 0.5
)

// createDB opens a badgerhold store in dir, or in memory when dir is empty.
func createDB(dir string, logger badger.Logger) (*badgerhold.Store, error) {
	isInMemory := len(dir) <= 0

	opts := badger.DefaultOptions(dir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	return badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
}

// withRetry runs fn until it does not fail with a transaction conflict, up to
// maxRetries more times.
func withRetry(fn func() error) error {
	err := fn()
	for attempts := 1; errors.Is(err, badger.ErrConflict) && attempts <= maxRetries; attempts++ {
		time.Sleep(retryDelay)
		err = fn()
	}
	return err
}

// startValueLogGC periodically reclaims value log space of an on-disk store.
// It returns nil for in-memory stores or a non positive interval.
func startValueLogGC(
	store *badgerhold.Store, name string, interval time.Duration,
) (*gocron.Scheduler, error) {
	if interval <= 0 || store.Badger().Opts().InMemory {
		return nil, nil
	}

	scheduler := gocron.NewScheduler(time.UTC)
	if _, err := scheduler.Every(interval).SingletonMode().Do(func() {
		for {
			// RunValueLogGC rewrites at most one file per call.
			err := store.Badger().RunValueLogGC(valueLogGCThreshold)
			if err == nil {
				continue
			}
			if !errors.Is(err, badger.ErrNoRewrite) {
				log.WithError(err).Warnf("value log gc failed for %s store", name)
			}
			return
		}
	}); err != nil {
		return nil, err
	}
	scheduler.StartAsync()
	return scheduler, nil
}

func parseConfig(config ...interface{}) (string, badger.Logger, time.Duration, error) {
	if len(config) < 2 || len(config) > 3 {
		return "", nil, 0, errors.New("invalid config")
	}
	baseDir, ok := config[0].(string)
	if !ok {
		return "", nil, 0, errors.New("invalid base directory")
	}
	var logger badger.Logger
	if config[1] != nil {
		logger, ok = config[1].(badger.Logger)
		if !ok {
			return "", nil, 0, errors.New("invalid logger")
		}
	}
	var gcInterval time.Duration
	if len(config) == 3 && config[2] != nil {
		gcInterval, ok = config[2].(time.Duration)
		if !ok {
			return "", nil, 0, errors.New("invalid value log gc interval")
		}
	}
	return baseDir, logger, gcInterval, nil
}
