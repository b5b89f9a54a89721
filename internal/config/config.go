// Package config assembles the module's environment-derived settings
// (ASSETS_DIR, PYSIM_URL, OBSERVER_ADDR) with flags > env > defaults precedence: flags
// first, falling back to environment-derived defaults only when unset.
package config

import "os"

// Config is the fully resolved set of settings the entrypoint needs to
// wire a node.
type Config struct {
	AssetsDir    string
	PysimURL     string
	ObserverAddr string
	NodeID       string
	Root         bool
	QEMU         bool
}

// Defaults for values with neither a flag nor an environment override.
const (
	DefaultAssetsDir    = "./assets"
	DefaultPysimURL     = "http://127.0.0.1:8765"
	DefaultObserverAddr = ":8080"
)

// Resolve applies flags > env > defaults precedence for the three
// environment-backed settings (ASSETS_DIR, PYSIM_URL, OBSERVER_ADDR); flag values win whenever they are
// non-empty (the caller is expected to pass flag.Value results, which are
// empty strings when unset).
func Resolve(flagAssetsDir, flagPysimURL, flagObserverAddr, flagNodeID string, root, qemu bool) Config {
	return Config{
		AssetsDir:    firstNonEmpty(flagAssetsDir, os.Getenv("ASSETS_DIR"), DefaultAssetsDir),
		PysimURL:     firstNonEmpty(flagPysimURL, os.Getenv("PYSIM_URL"), DefaultPysimURL),
		ObserverAddr: firstNonEmpty(flagObserverAddr, os.Getenv("OBSERVER_ADDR"), DefaultObserverAddr),
		NodeID:       flagNodeID,
		Root:         root,
		QEMU:         qemu,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
