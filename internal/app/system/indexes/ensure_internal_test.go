package indexes

import (
	"strings"
	"testing"

	"github.com/loftwork/loftwork/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestEnsureIndexSet_RejectsSameKeySignature(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := db.Collection("sigcheck")
	err := ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "a", Value: 1}, {Key: "b", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_sigcheck_a_b"),
		},
		{
			Keys:    bson.D{{Key: "a", Value: 1}, {Key: "b", Value: 1}},
			Options: options.Index().SetName("idx_sigcheck_a_b"),
		},
	})
	if err == nil {
		t.Fatal("expected an error for two models with the same key signature")
	}
	if !strings.Contains(err.Error(), "same keys") {
		t.Errorf("unexpected error: %v", err)
	}

	// The first model must have won and kept its uniqueness.
	doc := bson.M{"a": 1, "b": 2}
	if _, err := c.InsertOne(ctx, doc); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if _, err := c.InsertOne(ctx, doc); err == nil {
		t.Error("expected duplicate key error from the unique index")
	}
}
