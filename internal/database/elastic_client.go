package database

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/olivere/elastic/v7"

	"github.com/locvowork/school_management/internal/domain"
)

// TeacherDoc is the search document stored per teacher.
type TeacherDoc struct {
	TeacherID      int        `json:"teacher_id"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	EmployeeNumber string     `json:"employee_number"`
	HireDate       *time.Time `json:"hire_date,omitempty"`
}

const teacherMapping = `{
	"mappings": {
		"properties": {
			"teacher_id":      {"type": "integer"},
			"first_name":      {"type": "text"},
			"last_name":       {"type": "text"},
			"employee_number": {"type": "keyword"},
			"hire_date":       {"type": "date"}
		}
	}
}`

func newTeacherDoc(t domain.Teacher) TeacherDoc {
	doc := TeacherDoc{
		TeacherID:      t.ID,
		FirstName:      t.FirstName,
		LastName:       t.LastName,
		EmployeeNumber: t.EmployeeNumber,
	}
	if t.HireDate != nil {
		hired := t.HireDate.Time
		doc.HireDate = &hired
	}
	return doc
}

// ElasticSearchClient keeps a name index of teachers in Elasticsearch 7.x.
type ElasticSearchClient struct {
	client *elastic.Client
	index  string
}

// NewElasticSearchClient creates a client for url. No request is sent until
// the first index or search call.
func NewElasticSearchClient(url, index string) (*ElasticSearchClient, error) {
	client, err := elastic.NewClient(
		elastic.SetURL(url),
		elastic.SetSniff(false),
		elastic.SetHealthcheck(false),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	return &ElasticSearchClient{client: client, index: index}, nil
}

// EnsureIndex creates the index with its mapping when it does not exist.
func (es *ElasticSearchClient) EnsureIndex(ctx context.Context) error {
	exists, err := es.client.IndexExists(es.index).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to check index %s: %w", es.index, err)
	}
	if exists {
		return nil
	}

	if _, err := es.client.CreateIndex(es.index).BodyString(teacherMapping).Do(ctx); err != nil {
		return fmt.Errorf("failed to create index %s: %w", es.index, err)
	}
	return nil
}

// IndexTeacher upserts a teacher document using the teacher id as document id.
func (es *ElasticSearchClient) IndexTeacher(ctx context.Context, t domain.Teacher) error {
	_, err := es.client.Index().
		Index(es.index).
		Id(strconv.Itoa(t.ID)).
		BodyJson(newTeacherDoc(t)).
		Refresh("true").
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to index teacher %d: %w", t.ID, err)
	}
	return nil
}

// DeleteTeacher removes a teacher document. A missing document is fine.
func (es *ElasticSearchClient) DeleteTeacher(ctx context.Context, id int) error {
	_, err := es.client.Delete().
		Index(es.index).
		Id(strconv.Itoa(id)).
		Refresh("true").
		Do(ctx)
	if err != nil && !elastic.IsNotFound(err) {
		return fmt.Errorf("failed to delete teacher %d from index: %w", id, err)
	}
	return nil
}

// SearchTeachers runs a full-text match over names and employee number and
// returns the matching teacher ids in relevance order.
func (es *ElasticSearchClient) SearchTeachers(ctx context.Context, q string, limit int) ([]int, error) {
	query := elastic.NewMultiMatchQuery(q, "first_name", "last_name", "employee_number").
		Type("best_fields").
		Fuzziness("AUTO")

	searchResult, err := es.client.Search().
		Index(es.index).
		Query(query).
		Size(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	ids := make([]int, 0, len(searchResult.Hits.Hits))
	for _, hit := range searchResult.Hits.Hits {
		id, err := strconv.Atoi(hit.Id)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// BulkIndexTeachers indexes many teachers in one request.
func (es *ElasticSearchClient) BulkIndexTeachers(ctx context.Context, teachers []domain.Teacher) error {
	bulkRequest := es.client.Bulk()

	for _, t := range teachers {
		req := elastic.NewBulkIndexRequest().
			Index(es.index).
			Id(strconv.Itoa(t.ID)).
			Doc(newTeacherDoc(t))
		bulkRequest = bulkRequest.Add(req)
	}

	if bulkRequest.NumberOfActions() == 0 {
		return nil
	}

	bulkResponse, err := bulkRequest.Refresh("true").Do(ctx)
	if err != nil {
		return fmt.Errorf("bulk index failed: %w", err)
	}

	if bulkResponse.Errors {
		for _, item := range bulkResponse.Items {
			for _, op := range item {
				if op.Error != nil {
					return fmt.Errorf("bulk item failed: %s", op.Error.Reason)
				}
			}
		}
	}

	return nil
}
