package txn

import (
	"errors"
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
)

func TestIsNotSupported(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
		{
			name: "unrelated error",
			err:  errors.New("connection reset by peer"),
			want: false,
		},
		{
			name: "code 20 illegal operation",
			err:  mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member"},
			want: true,
		},
		{
			name: "code 51 unsupported transaction number",
			err:  mongo.CommandError{Code: 51, Message: "Illegal operation"},
			want: true,
		},
		{
			name: "code 263 not supported in transaction",
			err:  mongo.CommandError{Code: 263, Message: "Cannot run in a multi-document transaction"},
			want: true,
		},
		{
			name: "wrapped command error",
			err:  fmt.Errorf("seeding roles: %w", mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member"}),
			want: true,
		},
		{
			name: "unrelated command error code",
			err:  mongo.CommandError{Code: 11000, Message: "duplicate key error"},
			want: false,
		},
		{
			name: "transaction plus replica set wording",
			err:  errors.New("transaction failed because this is not a replica set member"),
			want: true,
		},
		{
			name: "session not supported wording",
			err:  errors.New("session operations are not supported on this server"),
			want: true,
		},
		{
			name: "transaction wording alone",
			err:  errors.New("transaction failed"),
			want: false,
		},
		{
			name: "transaction plus session wording",
			err:  errors.New("cannot start transaction in current session state"),
			want: true,
		},
		{
			name: "illegal operation wording",
			err:  errors.New("illegal operation during transaction"),
			want: true,
		},
		{
			name: "uppercase wording",
			err:  errors.New("TRANSACTION requires a REPLICA SET"),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotSupported(tt.err); got != tt.want {
				t.Errorf("IsNotSupported(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
