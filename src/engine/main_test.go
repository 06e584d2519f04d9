package engine

import (
	"os"
	"testing"

	"github.com/username/moneydesk/backend/src/logger"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}
