package jsearch

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockHTTPClient struct {
	mock.Mock
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	return args.Get(0).(*http.Response), args.Error(1)
}

func searchPageMock() (*http.Response, error) {
	file, err := os.ReadFile("testdata/search_page.json")

	return &http.Response{
		StatusCode: 200,
		Body:       io.NopCloser(bytes.NewBuffer(file)),
	}, err
}

func errorResponseMock(status int) (*http.Response, error) {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString("upstream error")),
	}, nil
}

func newTestClient(httpClient HTTPClient) *Client {
	client := NewClient("jobs.example.com", "test-key")
	client.SetHTTPClient(httpClient)
	client.backoffBase = 0
	return client
}

func Test_Search_ShouldBeSuccessful(t *testing.T) {

	assert := assert.New(t)

	mockClient := &mockHTTPClient{}
	mockClient.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		return req.URL.String() == "https://jobs.example.com/search?location=Berlin&num_results=20&query=golang+developer" &&
			req.Header.Get("X-Api-Key") == "test-key"
	})).Return(searchPageMock())

	client := newTestClient(mockClient)

	postings, nextToken, err := client.Search(context.Background(), SearchParameters{
		Query:    "golang developer",
		Location: "Berlin",
		PerPage:  20,
	})
	assert.NoError(err)

	assert.Len(postings, 2)
	assert.Equal("Senior Frontend Developer", postings[0].Title)
	assert.Equal("TechCorp", postings[0].Company)
	assert.False(postings[0].Remote)
	assert.Equal("Backend Engineer", postings[1].Title)
	assert.True(postings[1].Remote)
	assert.Equal("cGFnZTI=", nextToken)
}

func Test_Search_RetriesOnServerErrorThenSucceeds(t *testing.T) {

	mockClient := &mockHTTPClient{}
	mockClient.On("Do", mock.Anything).Return(errorResponseMock(500)).Once()
	mockClient.On("Do", mock.Anything).Return(searchPageMock()).Once()

	client := newTestClient(mockClient)

	postings, _, err := client.Search(context.Background(), SearchParameters{Query: "golang"})
	assert.NoError(t, err)
	assert.Len(t, postings, 2)
	mockClient.AssertExpectations(t)
}

func Test_Search_AbandonsPageAfterRetryBudget(t *testing.T) {

	mockClient := &mockHTTPClient{}
	mockClient.On("Do", mock.Anything).Return(errorResponseMock(502)).Times(4)

	client := newTestClient(mockClient)

	_, _, err := client.Search(context.Background(), SearchParameters{Query: "golang"})
	assert.Error(t, err)
	mockClient.AssertExpectations(t)
}

func Test_Search_RejectsInvalidParameters(t *testing.T) {

	client := newTestClient(&mockHTTPClient{})

	_, _, err := client.Search(context.Background(), SearchParameters{})
	assert.Error(t, err)

	_, _, err = client.Search(context.Background(), SearchParameters{Query: "go", PerPage: 500})
	assert.Error(t, err)
}
