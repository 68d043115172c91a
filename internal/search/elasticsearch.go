package search

import (
	"bytes"
	"context"
	"encoding/json"

	"example.com/bakehouse/services/orders/config"
	"example.com/bakehouse/services/orders/internal/models"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ElasticClient provides integration with Elasticsearch
type ElasticClient struct {
	client *elasticsearch.Client
	config config.ElasticConfig
}

// NewElasticClient creates a new Elasticsearch client
func NewElasticClient(cfg config.ElasticConfig) (*ElasticClient, error) {
	esConfig := elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	}

	client, err := elasticsearch.NewClient(esConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Elasticsearch client")
	}

	return &ElasticClient{
		client: client,
		config: cfg,
	}, nil
}

// IndexOrder indexes one order so the delivered history stays searchable by
// client, flavor and notes. Documents are keyed by order ID, so re-indexing
// an updated order overwrites the previous version.
func (c *ElasticClient) IndexOrder(ctx context.Context, order *models.Order) error {
	log.Debug().Str("order_id", order.ID.String()).Msg("indexing order")

	doc := map[string]interface{}{
		"id":              order.ID.String(),
		"client":          order.Client,
		"flavor":          order.Flavor,
		"notes":           order.Notes,
		"delivery_date":   order.DeliveryDate.String(),
		"month_bucket":    order.DeliveryDate.MonthBucket(),
		"total_price":     order.TotalPrice,
		"deposit_amount":  order.DepositAmount,
		"payment_status":  order.PaymentStatus,
		"delivery_status": order.DeliveryStatus,
		"created_at":      order.CreatedAt,
	}

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "failed to marshal order document")
	}

	indexName := config.FormatIndex(c.config, c.config.Index)
	req := esapi.IndexRequest{
		Index:      indexName,
		DocumentID: order.ID.String(),
		Body:       bytes.NewReader(docJSON),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch index request")
	}
	defer res.Body.Close()

	if res.IsError() {
		var e map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
			return errors.Wrap(err, "failed to parse Elasticsearch error response")
		}
		return errors.Errorf("Elasticsearch index error: %v", e)
	}

	return nil
}

// RemoveOrder drops a deleted order from the index. A missing document is
// not an error.
func (c *ElasticClient) RemoveOrder(ctx context.Context, id string) error {
	indexName := config.FormatIndex(c.config, c.config.Index)
	req := esapi.DeleteRequest{
		Index:      indexName,
		DocumentID: id,
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch delete request")
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return errors.Errorf("Elasticsearch delete error: %s", res.String())
	}
	return nil
}

// SearchOrders runs a free-text query over client, flavor and notes.
func (c *ElasticClient) SearchOrders(ctx context.Context, query string, size int) ([]map[string]interface{}, error) {
	if size <= 0 {
		size = 25
	}

	body := map[string]interface{}{
		"size": size,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"client^2", "flavor", "notes"},
			},
		},
		"sort": []map[string]interface{}{
			{"delivery_date": map[string]interface{}{"order": "asc", "unmapped_type": "date"}},
		},
	}

	queryJSON, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal search query")
	}

	indexName := config.FormatIndex(c.config, c.config.Index)
	req := esapi.SearchRequest{
		Index: []string{indexName},
		Body:  bytes.NewReader(queryJSON),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute Elasticsearch search request")
	}
	defer res.Body.Close()

	if res.IsError() {
		var e map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
			return nil, errors.Wrap(err, "failed to parse Elasticsearch error response")
		}
		return nil, errors.Errorf("Elasticsearch search error: %v", e)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "failed to parse Elasticsearch search response")
	}

	hits, ok := result["hits"].(map[string]interface{})
	if !ok {
		return nil, errors.New("unexpected search result format")
	}

	hitsArray, ok := hits["hits"].([]interface{})
	if !ok {
		return nil, errors.New("unexpected hits format")
	}

	var docs []map[string]interface{}
	for _, hit := range hitsArray {
		hitMap, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}

		source, ok := hitMap["_source"].(map[string]interface{})
		if !ok {
			continue
		}

		docs = append(docs, source)
	}

	return docs, nil
}
