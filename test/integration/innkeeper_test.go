package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/docker/go-connections/nat"
	amqp "github.com/rabbitmq/amqp091-go"
	redisclient "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"innkeeper/internal/adapters/crdb"
	mongoadapter "innkeeper/internal/adapters/mongo"
	"innkeeper/internal/adapters/rabbit"
	redisadapter "innkeeper/internal/adapters/redis"
	"innkeeper/internal/config"
	httphandler "innkeeper/internal/http"
	"innkeeper/internal/idempotency"
	"innkeeper/internal/notify"
	"innkeeper/internal/observability"
	"innkeeper/internal/outbox"
	"innkeeper/internal/rateLimit"
	"innkeeper/internal/service"
)

func startContainer(ctx context.Context, req testcontainers.ContainerRequest) (testcontainers.Container, error) {
	return testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
}

func endpoint(ctx context.Context, c testcontainers.Container, port string) (string, error) {
	host, err := c.Host(ctx)
	if err != nil {
		return "", err
	}
	mapped, err := c.MappedPort(ctx, nat.Port(port))
	if err != nil {
		return "", err
	}
	return host + ":" + mapped.Port(), nil
}

func signToken(t *testing.T, role, sub string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub, "role": role, "username": sub,
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func TestIntegration_ReservationLifecycle(t *testing.T) {
	ctx := context.Background()

	var crdbC, mongoC, redisC, rabbitC testcontainers.Container
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		crdbC, err = startContainer(gctx, testcontainers.ContainerRequest{
			Image:        "cockroachdb/cockroach:v24.1.1",
			Cmd:          []string{"start-single-node", "--insecure"},
			ExposedPorts: []string{"26257/tcp", "8080/tcp"},
			WaitingFor:   wait.ForHTTP("/health?ready=1").WithPort("8080"),
		})
		return err
	})
	g.Go(func() (err error) {
		mongoC, err = startContainer(gctx, testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp"),
		})
		return err
	})
	g.Go(func() (err error) {
		redisC, err = startContainer(gctx, testcontainers.ContainerRequest{
			Image:        "redis:7",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForExec([]string{"redis-cli", "ping"}),
		})
		return err
	})
	g.Go(func() (err error) {
		rabbitC, err = startContainer(gctx, testcontainers.ContainerRequest{
			Image:        "rabbitmq:3.13-management",
			ExposedPorts: []string{"5672/tcp", "15672/tcp"},
			WaitingFor:   wait.ForHTTP("/api/health").WithPort("15672").WithBasicAuth("guest", "guest"),
		})
		return err
	})
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	for _, c := range []testcontainers.Container{crdbC, mongoC, redisC, rabbitC} {
		c := c
		t.Cleanup(func() { c.Terminate(ctx) })
	}

	crdbAddr, err := endpoint(ctx, crdbC, "26257")
	if err != nil {
		t.Fatal(err)
	}
	mongoAddr, err := endpoint(ctx, mongoC, "27017")
	if err != nil {
		t.Fatal(err)
	}
	redisAddr, err := endpoint(ctx, redisC, "6379")
	if err != nil {
		t.Fatal(err)
	}
	rabbitAddr, err := endpoint(ctx, rabbitC, "5672")
	if err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{
		CRDBDSN:        "postgresql://root@" + crdbAddr + "/defaultdb?sslmode=disable",
		MongoURI:       "mongodb://" + mongoAddr,
		RedisAddr:      redisAddr,
		RabbitURL:      "amqp://guest:guest@" + rabbitAddr + "/",
		IdempotencyTTL: time.Hour,
		NotifyTimeout:  5 * time.Second,
	}

	pool, err := pgxpool.New(ctx, cfg.CRDBDSN)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()
	if err := crdb.Migrate(ctx, pool); err != nil {
		t.Fatal(err)
	}
	reservationRepo := crdb.NewRepository(pool)
	guestRepo := crdb.NewGuestRepository(pool)

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		t.Fatal(err)
	}
	defer mongoClient.Disconnect(ctx)
	logger := observability.NewLogger()
	audit := mongoadapter.NewAuditLogger(mongoClient.Database("innkeeper"), logger)

	redisClient := redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
	idemp := idempotency.New(redisadapter.NewIdempotency(redisClient), cfg.IdempotencyTTL)
	rl := rateLimit.NewRateLimiter(redisadapter.NewCache(redisClient))

	rabbitConn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		t.Fatal(err)
	}
	defer rabbitConn.Close()
	rabbitPub, err := rabbit.NewPublisher(rabbitConn)
	if err != nil {
		t.Fatal(err)
	}
	consumer, err := rabbit.NewConsumer(rabbitConn, "innkeeper-test", "reservation.*")
	if err != nil {
		t.Fatal(err)
	}
	deliveries, err := consumer.Consume()
	if err != nil {
		t.Fatal(err)
	}

	notifier := notify.New(rabbitPub, audit, "", logger, cfg.NotifyTimeout)
	reservations := service.NewReservationService(reservationRepo, notifier, logger)
	guests := service.NewGuestService(guestRepo, notifier, logger)
	reports := service.NewReportService(reservationRepo)

	handlers := httphandler.NewHandlers(reservations, guests, reports, idemp, logger)
	srv := httptest.NewServer(httphandler.SetupRouter(handlers, logger, rl))
	defer srv.Close()

	drainCtx, cancelDrain := context.WithCancel(ctx)
	defer cancelDrain()
	go outbox.NewPublisher(reservationRepo, rabbitPub, logger).Run(drainCtx)

	token := signToken(t, "receptionist", "alice")
	do := func(method, path, idempKey string, payload interface{}) (*http.Response, map[string]interface{}) {
		var buf bytes.Buffer
		if payload != nil {
			if err := json.NewEncoder(&buf).Encode(payload); err != nil {
				t.Fatal(err)
			}
		}
		req, err := http.NewRequest(method, srv.URL+path, &buf)
		if err != nil {
			t.Fatal(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		if idempKey != "" {
			req.Header.Set("Idempotency-Key", idempKey)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		var body map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&body)
		return resp, body
	}

	// Register a guest, then verify duplicate rejection.
	resp, guestBody := do("POST", "/v1/guests", uuid.New().String(), map[string]interface{}{
		"name": "Ana Souza", "document": "529.982.247-25", "email": "ana@example.com",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("guest create failed: %d %v", resp.StatusCode, guestBody)
	}
	resp, _ = do("POST", "/v1/guests", uuid.New().String(), map[string]interface{}{
		"name": "Outra Pessoa", "document": "52998224725",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate document, got %d", resp.StatusCode)
	}

	// Create a reservation; replaying the same Idempotency-Key must return
	// the recorded response instead of a conflict.
	key := uuid.New().String()
	payload := map[string]interface{}{
		"userId": 7, "roomId": 101, "checkIn": "2025-09-14", "checkOut": "2025-09-16",
	}
	resp, created := do("POST", "/v1/reservations", key, payload)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create failed: %d %v", resp.StatusCode, created)
	}
	id := created["id"].(string)

	resp, replayed := do("POST", "/v1/reservations", key, payload)
	if resp.StatusCode != http.StatusCreated || replayed["id"] != id {
		t.Fatalf("idempotent replay failed: %d %v", resp.StatusCode, replayed)
	}

	// A fresh key with the same period must hit the overlap check.
	resp, _ = do("POST", "/v1/reservations", uuid.New().String(), payload)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for overlap, got %d", resp.StatusCode)
	}

	// Walk the lifecycle and settle payment.
	for _, step := range []string{"/checkin", "/checkout"} {
		resp, body := do("POST", "/v1/reservations/"+id+step, "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s failed: %d %v", step, resp.StatusCode, body)
		}
	}
	resp, _ = do("PATCH", "/v1/reservations/"+id+"/amount", "", map[string]interface{}{"amount": 300.0})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("amount update failed: %d", resp.StatusCode)
	}
	resp, _ = do("PATCH", "/v1/reservations/"+id+"/payment", "", map[string]interface{}{"status": "paid"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("payment update failed: %d", resp.StatusCode)
	}

	adminToken := signToken(t, "admin", "root")
	req, _ := http.NewRequest("GET", srv.URL+"/v1/reports/revenue?start=2025-09-13&end=2025-09-17", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	revResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer revResp.Body.Close()
	var rev struct {
		Total float64 `json:"total"`
		Count int     `json:"count"`
	}
	if err := json.NewDecoder(revResp.Body).Decode(&rev); err != nil {
		t.Fatal(err)
	}
	if rev.Total != 300 || rev.Count != 1 {
		t.Errorf("expected revenue {300 1}, got %+v", rev)
	}

	// The outbox drain must deliver the staged created event to the queue.
	select {
	case msg := <-deliveries:
		var event map[string]interface{}
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			t.Fatal(err)
		}
		if event["reservation_id"] != id {
			t.Errorf("expected event for %s, got %v", id, event)
		}
	case <-time.After(30 * time.Second):
		t.Error("no reservation event delivered")
	}

	// The audit trail in mongo must have recorded the lifecycle.
	deadline := time.Now().Add(15 * time.Second)
	coll := mongoClient.Database("innkeeper").Collection("audit_logs")
	for {
		n, err := coll.CountDocuments(ctx, bson.M{"action": "reservation.checked_out"})
		if err != nil {
			t.Fatal(err)
		}
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Error("no checked_out audit entry written")
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
}
