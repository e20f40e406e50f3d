// Package config loads retain.yaml, the configuration of the retain
// command.
//
// # Configuration File Structure
//
//	log:
//	  level: info        # debug | info | warn | error
//	  format: text       # text | json
//	store:
//	  driver: sqlite     # memory | sqlite | badger | s3
//	  path: retain.db    # sqlite file or badger directory
//	  bucket: ""         # s3 only
//	  prefix: retain/    # s3 only
//	  region: us-east-1  # s3 only
//	  endpoint: ""       # s3 only, for S3-compatible services
//	  key: retain:snapshot
//	inspect:
//	  addr: localhost:7070
//	metrics:
//	  namespace: retain
//
// A missing file yields the defaults.
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	logger := cfg.Log.NewLogger(os.Stderr)
package config
