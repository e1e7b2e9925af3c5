// Seeder derives the historical pattern corpus and loads it into the
// similarity index: derive -> write JSON -> recreate collection -> embed in
// batches -> upsert. One-off offline tool; the serving core never writes to
// the index.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"maitred/internal/corpus"
	"maitred/internal/models"
	"maitred/internal/vector"
)

const embedBatchSize = 50

var (
	configFile = flag.String("config", "configs/config.yaml", "Path to configuration file")
	corpusPath = flag.String("corpus", "data/patterns.json", "Where to write the derived corpus")
	startDate  = flag.String("start", "", "Corpus start date (YYYY-MM-DD), default two years back")
	endDate    = flag.String("end", "", "Corpus end date (YYYY-MM-DD), default yesterday")
)

func main() {
	flag.Parse()

	config, err := models.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	start, end := corpusRange()
	log.Printf("Deriving corpus %s .. %s", start.Format("2006-01-02"), end.Format("2006-01-02"))

	records, err := corpus.Derive(start, end)
	if err != nil {
		log.Fatalf("Corpus derivation failed: %v", err)
	}
	log.Printf("Derived %d patterns", len(records))

	if err := corpus.WriteJSON(*corpusPath, records); err != nil {
		log.Fatalf("Writing corpus failed: %v", err)
	}
	log.Printf("Wrote corpus to %s", *corpusPath)

	embedder, err := vector.NewTextEmbedder(vector.EmbedderOptions{
		BaseURL: config.Embedding.BaseURL,
		APIKey:  config.Embedding.APIKey,
		Model:   config.Embedding.Model,
	})
	if err != nil {
		log.Fatalf("Embedding service required for seeding: %v", err)
	}

	index, err := vector.NewQdrantIndex(vector.Options{
		Host:       config.Vector.Host,
		Port:       config.Vector.Port,
		APIKey:     config.Vector.APIKey,
		UseTLS:     config.Vector.UseTLS,
		Collection: config.Vector.Collection,
		Dimension:  config.Vector.Dimension,
	})
	if err != nil {
		log.Fatalf("Similarity index required for seeding: %v", err)
	}

	ctx := context.Background()
	if err := index.EnsureCollection(ctx); err != nil {
		log.Fatalf("Recreating collection failed: %v", err)
	}

	total := 0
	for i := 0; i < len(records); i += embedBatchSize {
		batch := records[i:min(i+embedBatchSize, len(records))]

		texts := make([]string, len(batch))
		for j, r := range batch {
			texts[j] = r.ContextString
		}

		vectors, err := embedder.EmbedBatch(ctx, texts)
		if err != nil {
			log.Fatalf("Embedding batch at offset %d failed: %v", i, err)
		}

		upserts := make([]vector.UpsertRecord, len(batch))
		for j, r := range batch {
			upserts[j] = vector.UpsertRecord{
				ID:      uint64(i + j),
				Vector:  vectors[j],
				Payload: r.IndexPayload(),
			}
		}

		if err := index.Upsert(ctx, upserts); err != nil {
			log.Fatalf("Upserting batch at offset %d failed: %v", i, err)
		}

		total += len(batch)
		log.Printf("Upserted %d/%d patterns", total, len(records))
	}

	count, err := index.Count(ctx)
	if err != nil {
		log.Fatalf("Counting indexed patterns failed: %v", err)
	}
	log.Printf("Seeding complete: collection %s holds %d points", config.Vector.Collection, count)
}

func corpusRange() (time.Time, time.Time) {
	now := time.Now().UTC()
	start := now.AddDate(-2, 0, 0)
	end := now.AddDate(0, 0, -1)

	if *startDate != "" {
		parsed, err := time.ParseInLocation("2006-01-02", *startDate, time.UTC)
		if err != nil {
			log.Fatalf("Invalid start date: %v", err)
		}
		start = parsed
	}
	if *endDate != "" {
		parsed, err := time.ParseInLocation("2006-01-02", *endDate, time.UTC)
		if err != nil {
			log.Fatalf("Invalid end date: %v", err)
		}
		end = parsed
	}
	return start, end
}
