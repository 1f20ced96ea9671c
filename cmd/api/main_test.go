package main

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justsurfingit/jobboard/internal/config"
)

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func memoryConfig(port string) *config.Config {
	return &config.Config{
		Port:        port,
		StoreDriver: config.DriverMemory,
		TokenSecret: "s3cret",
		TokenTTL:    time.Hour,
		GinMode:     "test",
	}
}

func TestOpenStoresMemory(t *testing.T) {
	st, err := openStores(context.Background(), memoryConfig("0"), quietLog())
	require.NoError(t, err)
	assert.NotNil(t, st.jobs)
	assert.NotNil(t, st.users)
	st.close()
}

func TestRunReturnsListenError(t *testing.T) {
	err := run(memoryConfig("not-a-port"), quietLog())
	assert.ErrorContains(t, err, "listen")
}
