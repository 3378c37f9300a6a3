package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/trustlayer/trustgraph/internal/core/domain"
)

// Projection mirrors stored atoms into a product graph so curation tooling
// can walk product/atom relationships. The JSON or Postgres store stays the
// system of record; a projection failure is logged by the pipeline and never
// fails the batch.
type Projection struct {
	driver   neo4j.DriverWithContext
	database string
}

func NewProjection(ctx context.Context, uri, user, password, database string) (*Projection, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}
	return &Projection{driver: driver, database: database}, nil
}

func (p *Projection) Close(ctx context.Context) error {
	return p.driver.Close(ctx)
}

func (p *Projection) MirrorAtom(ctx context.Context, atom domain.TrustAtom) error {
	const query = `
MERGE (product:Product {product_id: $product_id})
ON CREATE SET product.category = $category
MERGE (atom:TrustAtom {atom_id: $atom_id})
ON CREATE SET
	atom.source = $source,
	atom.sentiment = $sentiment,
	atom.confidence = $confidence,
	atom.authenticity = $authenticity,
	atom.timestamp = $timestamp
MERGE (atom)-[:ABOUT]->(product)
`
	params := map[string]any{
		"product_id":   atom.ProductID,
		"category":     domain.CategoryFor(atom.ProductID),
		"atom_id":      atom.AtomID,
		"source":       string(atom.Source),
		"sentiment":    string(atom.SentimentLabel),
		"confidence":   atom.ConfidenceScore,
		"authenticity": atom.AuthenticityScore,
		"timestamp":    atom.Timestamp,
	}

	_, err := neo4j.ExecuteQuery(ctx, p.driver, query, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(p.database),
	)
	if err != nil {
		return fmt.Errorf("mirror atom %s: %w", atom.AtomID, err)
	}
	return nil
}
