package process_blob

import (
	"github.com/Moonlight-Companies/gologger/logger"
)

func testLogger() *logger.Logger {
	return logger.NewLogger("process-blob-test")
}
