package services

import (
	"context"

	"cloud.google.com/go/firestore"
)

// updateRecordStatus moves a file record to the given status, attaching
// error details when present. Shared by every service that owns part of the
// record lifecycle.
func updateRecordStatus(ctx context.Context, docRef *firestore.DocumentRef, status, errDetails string) error {
	updates := []firestore.Update{
		{Path: "status", Value: status},
	}
	if errDetails != "" {
		updates = append(updates, firestore.Update{Path: "errorDetails", Value: errDetails})
	}
	_, err := docRef.Update(ctx, updates)
	return err
}
