package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

func ExampleManager_Claim() {
	ctx := context.Background()
	manager, _ := NewManager(newMemoryStore(), 7*24*time.Hour)
	eventID := uuid.MustParse("f47ac10b-58cc-4372-a567-0e02b2c3d479")

	for i := 0; i < 2; i++ {
		status, _ := manager.Claim(ctx, "notification-inbox", eventID)
		fmt.Println(status)
		if status == StatusClaimed {
			_ = manager.Complete(ctx, "notification-inbox", eventID)
		}
	}
	// Output:
	// claimed
	// done
}
