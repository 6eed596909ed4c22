package service_test

import (
	"os"
	"testing"

	"github.com/andli/cardartvoter/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}
