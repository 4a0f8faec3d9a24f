package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func checkGraphQL(body []byte) error {
	var resp graphqlResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("decode graphql response: %w", err)
	}

	if len(resp.Errors) > 0 {
		msg := resp.Errors[0].Message
		if msg == "" {
			msg = "graphql query failed"
		}
		return errors.New(msg)
	}

	return nil
}

// GraphQL posts query with vars to endpoint and decodes the "data" member
// into out. A response carrying "errors" counts as a failed attempt.
func (g *Gateway) GraphQL(ctx context.Context, endpoint, query string, vars map[string]any, out any) error {
	if vars == nil {
		vars = map[string]any{}
	}

	body, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": vars,
	})
	if err != nil {
		return err
	}

	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	header.Set("Accept", "application/json")

	raw, err := g.Query(ctx, Request{
		Method: http.MethodPost,
		URL:    endpoint,
		Header: header,
		Body:   body,
		Check:  checkGraphQL,
	})
	if err != nil {
		return err
	}

	var resp graphqlResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("decode graphql response: %w", err)
	}

	if out == nil {
		return nil
	}

	return json.Unmarshal(resp.Data, out)
}
