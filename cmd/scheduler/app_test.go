package main

import (
	"strings"
	"testing"

	"github.com/BruksfildServices01/clinic-scheduler/internal/config"
)

func TestRequireDurableStore(t *testing.T) {
	tests := []struct {
		backend string
		wantErr bool
	}{
		{config.BackendMemory, true},
		{config.BackendPostgres, false},
		{config.BackendDynamoDB, false},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			err := requireDurableStore(&config.Config{StoreBackend: tt.backend}, "patient add")
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error=%v, got %v", tt.wantErr, err)
			}
			if err != nil && !strings.Contains(err.Error(), "STORE_BACKEND=memory") {
				t.Errorf("expected the backend named in the error, got %q", err)
			}
		})
	}
}

func TestRequireDurableQueue(t *testing.T) {
	tests := []struct {
		backend string
		wantErr bool
	}{
		{config.BackendMemory, true},
		{config.BackendSQS, false},
		{config.BackendRedis, false},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			err := requireDurableQueue(&config.Config{QueueBackend: tt.backend}, "request submit")
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error=%v, got %v", tt.wantErr, err)
			}
			if err != nil && !strings.Contains(err.Error(), "QUEUE_BACKEND=memory") {
				t.Errorf("expected the backend named in the error, got %q", err)
			}
		})
	}
}
