package service

import (
	"encoding/json"

	"go.uber.org/zap"
)

// auditValues encodes an audit snapshot. Encoding failures are logged and the
// entry is still written without the snapshot.
func auditValues(logger *zap.Logger, resource string, value interface{}) []byte {
	data, err := json.Marshal(value)
	if err != nil {
		logger.Warn("failed to encode audit values", zap.String("resource", resource), zap.Error(err))
		return nil
	}
	return data
}
