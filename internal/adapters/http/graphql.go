package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/loross14/lost-and-found/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	boundsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "BoundingBox",
		Fields: graphql.Fields{
			"north": &graphql.Field{Type: graphql.Float},
			"south": &graphql.Field{Type: graphql.Float},
			"east":  &graphql.Field{Type: graphql.Float},
			"west":  &graphql.Field{Type: graphql.Float},
		},
	})

	scanJobType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ScanJob",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.String},
			"label":         &graphql.Field{Type: graphql.String},
			"region_name":   &graphql.Field{Type: graphql.String},
			"bounds":        &graphql.Field{Type: boundsType},
			"zoom":          &graphql.Field{Type: graphql.Int},
			"status":        &graphql.Field{Type: graphql.String},
			"total_tiles":   &graphql.Field{Type: graphql.Int},
			"scanned_tiles": &graphql.Field{Type: graphql.Int},
			"sites_found":   &graphql.Field{Type: graphql.Int},
			"error_message": &graphql.Field{Type: graphql.String},
		},
	})

	potentialSiteType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PotentialSite",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.String},
			"job_id":        &graphql.Field{Type: graphql.String},
			"location":      &graphql.Field{Type: geoPointType},
			"feature_kind":  &graphql.Field{Type: graphql.String},
			"confidence":    &graphql.Field{Type: graphql.Float},
			"description":   &graphql.Field{Type: graphql.String},
			"review_status": &graphql.Field{Type: graphql.String},
		},
	})

	historicSiteType := graphql.NewObject(graphql.ObjectConfig{
		Name: "HistoricSite",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.String},
			"ref_num":  &graphql.Field{Type: graphql.String},
			"name":     &graphql.Field{Type: graphql.String},
			"category": &graphql.Field{Type: graphql.String},
			"location": &graphql.Field{Type: geoPointType},
			"county":   &graphql.Field{Type: graphql.String},
			"state":    &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"scans": &graphql.Field{
				Type:        graphql.NewList(scanJobType),
				Description: "List all scan jobs, newest first",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Scans.List(p.Context)
				},
			},
			"scan": &graphql.Field{
				Type:        scanJobType,
				Description: "Get a scan job by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					progress, err := deps.Scans.Get(p.Context, id)
					if err != nil {
						return nil, err
					}
					return progress.Job, nil
				},
			},
			"scanSites": &graphql.Field{
				Type:        graphql.NewList(potentialSiteType),
				Description: "Findings for a scan job, highest confidence first",
				Args: graphql.FieldConfigArgument{
					"job_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					jobID := p.Args["job_id"].(string)
					limit := p.Args["limit"].(int)
					sites, _, err := deps.Sites.ListByJob(p.Context, jobID, 0, limit)
					return sites, err
				},
			},
			"historicSites": &graphql.Field{
				Type:        graphql.NewList(historicSiteType),
				Description: "Registered historic sites inside a bounding box",
				Args: graphql.FieldConfigArgument{
					"north": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"south": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"east":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"west":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 500},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					bounds := domain.BoundingBox{
						North: p.Args["north"].(float64),
						South: p.Args["south"].(float64),
						East:  p.Args["east"].(float64),
						West:  p.Args["west"].(float64),
					}
					limit := p.Args["limit"].(int)
					return deps.Sites.HistoricInBounds(p.Context, bounds, limit)
				},
			},
			"historicSitesNearby": &graphql.Field{
				Type:        graphql.NewList(historicSiteType),
				Description: "Registered historic sites near a point",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lng":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 1000.0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat := p.Args["lat"].(float64)
					lng := p.Args["lng"].(float64)
					radius := p.Args["radius"].(float64)
					limit := p.Args["limit"].(int)
					return deps.Sites.HistoricNearby(p.Context, lat, lng, radius, limit)
				},
			},
			"regions": &graphql.Field{
				Type:        graphql.NewList(graphql.String),
				Description: "Preset region names",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Scans.Regions(), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.Context(),
		})

		return c.JSON(result)
	}
}
