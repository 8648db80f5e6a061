package di

import (
	"fmt"

	"github.com/aristath/avgdown/internal/clientdata"
	"github.com/aristath/avgdown/internal/clients/exchangerate"
	"github.com/aristath/avgdown/internal/config"
	"github.com/aristath/avgdown/internal/modules/averaging"
	"github.com/aristath/avgdown/internal/modules/currency"
	"github.com/rs/zerolog"
)

// InitializeServices builds repositories, clients and services on top of the databases.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil || container.ClientDataDB == nil {
		return fmt.Errorf("container has no client_data database")
	}

	container.ClientDataRepo = clientdata.NewRepository(container.ClientDataDB.Conn())
	container.ExchangeRateClient = exchangerate.NewClient(cfg.ExchangeRate.URL, container.ClientDataRepo, log)
	container.RateProvider = currency.NewRateProvider(
		container.ExchangeRateClient,
		cfg.ExchangeRate.Base,
		cfg.ExchangeRate.Quote,
		cfg.ExchangeRate.DefaultRate,
		log,
	)
	container.Engine = averaging.NewEngine()

	return nil
}
