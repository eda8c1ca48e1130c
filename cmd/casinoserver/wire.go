//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
)

func initializeApp(ctx context.Context, path configPath) (*app, func(), error) {
	wire.Build(providerSet)
	return nil, nil, nil
}
