package alerts

import (
	"os"
	"testing"

	"github.com/veritrack/platform/pkg/common/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}
