package telemetry

import (
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InstrumentGorm registers the otelgorm plugin so every query runs inside a
// child span of the request. Query variables are excluded from span attributes;
// commission and settlement rows carry buyer and vendor identifiers.
func InstrumentGorm(db *gorm.DB, dbName string, logger *zap.Logger) error {
	plugin := otelgorm.NewPlugin(
		otelgorm.WithDBName(dbName),
		otelgorm.WithoutQueryVariables(),
	)
	if err := db.Use(plugin); err != nil {
		return err
	}
	logger.Info("Database tracing enabled", zap.String("db_name", dbName))
	return nil
}
