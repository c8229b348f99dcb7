package mongodb

import (
	"go.mongodb.org/mongo-driver/mongo/options"
)

func findLimitOptions(limit int) *options.FindOptions {
	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return opts
}
