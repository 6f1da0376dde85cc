package seed

import (
	"encoding/base64"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
)

// imageBytes is the size of each generated fake image payload.
const imageBytes = 2048

// generateSubmissions builds deterministic fake image submissions. Payloads
// are seeded per index so repeated runs produce identical bytes, which
// exercises both deduplication and the evaluation cache.
func generateSubmissions(cfg *Config) []submission {
	subs := make([]submission, cfg.NumItems)
	for i := range subs {
		rng := rand.New(rand.NewSource(int64(i))) //nolint:gosec // test data only
		data := make([]byte, imageBytes)
		rng.Read(data)

		subs[i] = submission{
			SubmissionID: uuid.New().String(),
			Persona:      cfg.Persona,
			ImageID:      fmt.Sprintf("img-%06d", i),
			MediaType:    "image/png",
			ImageB64:     base64.StdEncoding.EncodeToString(data),
		}
	}
	return subs
}
