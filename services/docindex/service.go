package docindex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/pinecone-io/go-pinecone/v3/pinecone"
	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/textsplitter"
	"google.golang.org/protobuf/types/known/structpb"
)

// Chunking parameters match the original ingestion pipeline and must not
// change, or previously indexed documents become incomparable.
const (
	chunkSize    = 1000
	chunkOverlap = 200

	embeddingDimension = 1536 // OpenAI ada-002 embedding dimension
	upsertBatchSize    = 10
)

var ErrEmptyDocument = errors.New("document produced no text chunks")

// Index is the handle for one indexed document. Vectors for a document live
// in their own namespace so teardown can remove them without touching
// anything else.
type Index struct {
	Namespace  string `json:"namespace"`
	ChunkCount int    `json:"chunk_count"`
}

type Service struct {
	client    *pinecone.Client
	embedder  embeddings.Embedder
	indexName string
}

func NewService(pineconeAPIKey, openaiAPIKey, indexName string) (*Service, error) {
	log.Printf("[INFO] Initializing document index service")

	pc, err := pinecone.NewClient(pinecone.NewClientParams{
		ApiKey: pineconeAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Pinecone client: %w", err)
	}

	llm, err := openai.New(
		openai.WithModel("gpt-4o-mini"),
		openai.WithToken(openaiAPIKey),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	service := &Service{
		client:    pc,
		embedder:  embedder,
		indexName: indexName,
	}

	if err := service.ensureIndex(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ensure Pinecone index: %w", err)
	}

	log.Printf("[INFO] Document index service initialized successfully")
	return service, nil
}

// BuildIndex loads a PDF, splits it into overlapping chunks, embeds them and
// upserts the vectors into a fresh namespace. Nothing is left behind on
// failure except vectors already upserted for this namespace; callers tear
// those down via DeleteIndex.
func (s *Service) BuildIndex(ctx context.Context, r io.ReaderAt, size int64) (*Index, error) {
	log.Printf("[INFO] Building document index from PDF (%d bytes)", size)

	loader := documentloaders.NewPDF(r, size)
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
	)

	docs, err := loader.LoadAndSplit(ctx, splitter)
	if err != nil {
		return nil, fmt.Errorf("failed to load and split PDF: %w", err)
	}

	if len(docs) == 0 {
		return nil, ErrEmptyDocument
	}

	log.Printf("[INFO] Split document into %d chunks", len(docs))

	texts := make([]string, 0, len(docs))
	for _, doc := range docs {
		texts = append(texts, doc.PageContent)
	}

	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}

	index := &Index{
		Namespace:  newNamespaceID(),
		ChunkCount: len(docs),
	}

	idxConn, err := s.connect(ctx, index.Namespace)
	if err != nil {
		return nil, err
	}

	pineconeVectors := make([]*pinecone.Vector, 0, len(docs))
	for i := range docs {
		metadata := map[string]any{
			"content":     docs[i].PageContent,
			"chunk_index": i,
			"created_at":  time.Now().Format(time.RFC3339),
		}

		metadataStruct, err := structpb.NewStruct(metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to create metadata struct for chunk %d: %w", i, err)
		}

		pineconeVectors = append(pineconeVectors, &pinecone.Vector{
			Id:       fmt.Sprintf("%s_chunk_%d", index.Namespace, i),
			Values:   &vectors[i],
			Metadata: metadataStruct,
		})
	}

	for i := 0; i < len(pineconeVectors); i += upsertBatchSize {
		end := i + upsertBatchSize
		if end > len(pineconeVectors) {
			end = len(pineconeVectors)
		}

		count, err := idxConn.UpsertVectors(ctx, pineconeVectors[i:end])
		if err != nil {
			return nil, fmt.Errorf("failed to upsert vector batch: %w", err)
		}
		log.Printf("[INFO] Upserted %d vectors (batch %d)", count, i/upsertBatchSize+1)
	}

	log.Printf("[INFO] Indexed %d chunks into namespace %s", index.ChunkCount, index.Namespace)
	return index, nil
}

// Query embeds the prompt and returns the content of the topK nearest chunks.
func (s *Service) Query(ctx context.Context, index *Index, prompt string, topK int) ([]string, error) {
	queryEmbeddings, err := s.embedder.EmbedDocuments(ctx, []string{prompt})
	if err != nil {
		return nil, fmt.Errorf("failed to generate query embedding: %w", err)
	}

	idxConn, err := s.connect(ctx, index.Namespace)
	if err != nil {
		return nil, err
	}

	result, err := idxConn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          queryEmbeddings[0],
		TopK:            uint32(topK),
		IncludeValues:   false,
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}

	var chunks []string
	for _, match := range result.Matches {
		if match.Vector.Metadata == nil {
			continue
		}
		metadata := match.Vector.Metadata.AsMap()
		if content, ok := metadata["content"].(string); ok && content != "" {
			chunks = append(chunks, content)
		}
	}

	log.Printf("[INFO] Retrieved %d chunks from namespace %s", len(chunks), index.Namespace)
	return chunks, nil
}

// DeleteIndex removes every vector in the document's namespace.
func (s *Service) DeleteIndex(ctx context.Context, index *Index) error {
	log.Printf("[INFO] Deleting vectors for namespace %s", index.Namespace)

	idxConn, err := s.connect(ctx, index.Namespace)
	if err != nil {
		return err
	}

	limit := uint32(100)
	listResp, err := idxConn.ListVectors(ctx, &pinecone.ListVectorsRequest{
		Limit: &limit,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Namespace not found") {
			log.Printf("[INFO] Namespace %s does not exist, nothing to delete", index.Namespace)
			return nil
		}
		return fmt.Errorf("failed to list vectors: %w", err)
	}

	for listResp.NextPaginationToken != nil || len(listResp.VectorIds) > 0 {
		vectorIdsToDelete := make([]string, 0, len(listResp.VectorIds))
		for _, vectorId := range listResp.VectorIds {
			if vectorId != nil {
				vectorIdsToDelete = append(vectorIdsToDelete, *vectorId)
			}
		}

		if len(vectorIdsToDelete) > 0 {
			if err := idxConn.DeleteVectorsById(ctx, vectorIdsToDelete); err != nil {
				return fmt.Errorf("failed to delete vector batch: %w", err)
			}
			log.Printf("[INFO] Deleted %d vectors from namespace %s", len(vectorIdsToDelete), index.Namespace)
		}

		if listResp.NextPaginationToken == nil {
			break
		}

		listResp, err = idxConn.ListVectors(ctx, &pinecone.ListVectorsRequest{
			Limit:           &limit,
			PaginationToken: listResp.NextPaginationToken,
		})
		if err != nil {
			return fmt.Errorf("failed to list next batch of vectors: %w", err)
		}
	}

	return nil
}

func (s *Service) connect(ctx context.Context, namespace string) (*pinecone.IndexConnection, error) {
	idxDesc, err := s.client.DescribeIndex(ctx, s.indexName)
	if err != nil {
		return nil, fmt.Errorf("failed to describe index: %w", err)
	}

	idxConn, err := s.client.Index(pinecone.NewIndexConnParams{
		Host:      idxDesc.Host,
		Namespace: namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create index connection: %w", err)
	}

	return idxConn, nil
}

func (s *Service) ensureIndex(ctx context.Context) error {
	indexes, err := s.client.ListIndexes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list indexes: %w", err)
	}

	for _, idx := range indexes {
		if idx.Name == s.indexName {
			log.Printf("[INFO] Index %s already exists", s.indexName)
			return nil
		}
	}

	log.Printf("[INFO] Creating Pinecone index: %s", s.indexName)
	dimension := int32(embeddingDimension)
	deletionProtection := pinecone.DeletionProtectionDisabled
	metric := pinecone.Cosine

	_, err = s.client.CreateServerlessIndex(ctx, &pinecone.CreateServerlessIndexRequest{
		Name:               s.indexName,
		Dimension:          &dimension,
		Metric:             &metric,
		Cloud:              pinecone.Aws,
		Region:             "us-east-1",
		DeletionProtection: &deletionProtection,
		Tags:               &pinecone.IndexTags{"environment": "development", "project": "mcq-generator"},
	})
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	for {
		idx, err := s.client.DescribeIndex(ctx, s.indexName)
		if err != nil {
			return fmt.Errorf("failed to describe index: %w", err)
		}
		if idx.Status.Ready {
			log.Printf("[INFO] Index %s is ready", s.indexName)
			break
		}
		log.Printf("[INFO] Waiting for index %s to be ready...", s.indexName)
		time.Sleep(10 * time.Second)
	}

	return nil
}

const namespaceCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

func newNamespaceID() string {
	b := make([]byte, 10)
	for i := range b {
		b[i] = namespaceCharset[rand.Intn(len(namespaceCharset))]
	}
	return "doc-" + string(b)
}
