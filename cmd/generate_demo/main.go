// Command generate_demo creates a demo database with sample DevOps interview
// questions and a demo superuser.
// Usage: go run ./cmd/generate_demo [-db path/to/demo.db]
package main

import (
	"context"
	"flag"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/devops-offer/offer/internal/auth"
	"github.com/devops-offer/offer/internal/config"
	"github.com/devops-offer/offer/internal/database"
	"github.com/devops-offer/offer/internal/database/answers"
	"github.com/devops-offer/offer/internal/database/categories"
	"github.com/devops-offer/offer/internal/database/questions"
	"github.com/devops-offer/offer/internal/database/tokens"
	"github.com/devops-offer/offer/internal/database/users"
	"github.com/devops-offer/offer/internal/logging"
	"github.com/devops-offer/offer/internal/mail"
)

const (
	defaultDemoDatabasePath = "./demo/demo.db"
	demoPassword            = "Dem0!Offer"
)

type demoQuestion struct {
	Title  string
	Answer string
}

type demoCategory struct {
	Name        string
	Description string
	Questions   []demoQuestion
}

func main() {
	dbPath := flag.String("db", defaultDemoDatabasePath, "path to the demo database file")
	flag.Parse()

	log := logging.New(config.Logging{Level: "info"})
	log.WithField("path", *dbPath).Info("Generating demo database")

	// Delete existing demo database to start fresh
	if err := os.Remove(*dbPath); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Fatal("Failed to remove existing demo database")
	}

	db, err := database.Open(config.Database{URL: *dbPath, LogLevel: "silent"}, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create database")
	}
	defer db.Close()

	ctx := context.Background()
	if err := seed(ctx, db, log); err != nil {
		log.WithError(err).Fatal("Failed to seed demo data")
	}
	log.Info("Demo database generated successfully!")
}

func seed(ctx context.Context, db *database.Database, log logrus.FieldLogger) error {
	accounts := auth.NewService(
		users.NewRepository(db.DB),
		tokens.NewRepository(db.DB),
		mail.NewLogSender(log),
		config.Auth{BcryptCost: 10},
		"",
		log,
	)
	if _, err := accounts.CreateSuperuser(ctx, "admin", "admin@example.com", demoPassword); err != nil {
		return err
	}
	log.WithField("username", "admin").Info("Created demo superuser")

	categoryRepo := categories.NewRepository(db.DB)
	questionRepo := questions.NewRepository(db.DB)
	answerRepo := answers.NewRepository(db.DB)

	for _, dc := range demoCatalog() {
		category, err := categoryRepo.Create(ctx, dc.Name, dc.Description)
		if err != nil {
			return err
		}
		for _, dq := range dc.Questions {
			question, err := questionRepo.Create(ctx, dq.Title, category.ID)
			if err != nil {
				return err
			}
			if dq.Answer == "" {
				continue
			}
			if _, err := answerRepo.Create(ctx, question.ID, dq.Answer); err != nil {
				return err
			}
		}
		log.WithFields(logrus.Fields{"category": category.Name, "questions": len(dc.Questions)}).Info("Saved category")
	}
	return nil
}

func demoCatalog() []demoCategory {
	return []demoCategory{
		{
			Name:        "Linux",
			Description: "Processes, filesystems and the shell.",
			Questions: []demoQuestion{
				{"What is an inode?", "<p>An inode stores a file's metadata: owner, permissions, timestamps and pointers to its data blocks. The file name lives in the directory entry, not in the inode.</p>"},
				{"What is the difference between a hard link and a symbolic link?", "<p>A hard link is another directory entry for the same inode. A symbolic link is a separate file whose content is a path; it breaks when the target is removed.</p>"},
				{"What does a zombie process mean?", "<p>A child that has exited but whose parent has not yet called <code>wait()</code>. It holds only a process table entry.</p>"},
				{"How do you find which process listens on a port?", "<p><code>ss -ltnp</code> or <code>lsof -i :PORT</code>.</p>"},
			},
		},
		{
			Name:        "Networking",
			Description: "TCP/IP, DNS and HTTP.",
			Questions: []demoQuestion{
				{"What happens when you type a URL into a browser?", "<p>DNS resolution, a TCP connection (plus TLS for HTTPS), the HTTP request, and rendering of the response.</p>"},
				{"What is the difference between TCP and UDP?", "<p>TCP is connection oriented with ordered, reliable delivery and congestion control. UDP sends independent datagrams without delivery guarantees.</p>"},
				{"What is a DNS TTL?", ""},
			},
		},
		{
			Name:        "Docker",
			Description: "Images, containers and runtimes.",
			Questions: []demoQuestion{
				{"What is the difference between an image and a container?", "<p>An image is a read-only stack of layers. A container is a running instance of an image with a writable layer on top.</p>"},
				{"How does a multi-stage build reduce image size?", "<p>Build tools stay in earlier stages; only the artifacts are copied into the final, minimal stage.</p>"},
			},
		},
		{
			Name:        "Kubernetes",
			Description: "Scheduling, networking and workloads on Kubernetes.",
			Questions: []demoQuestion{
				{"What is the difference between a Deployment and a StatefulSet?", "<p>StatefulSet pods keep stable names and per-pod volumes and start in order. Deployment pods are interchangeable.</p>"},
				{"What does a readiness probe do?", "<p>It decides whether a pod receives traffic from Services. A failing readiness probe does not restart the container.</p>"},
			},
		},
		{
			Name:        "CI/CD",
			Description: "Pipelines, artifacts and release strategies.",
			Questions: []demoQuestion{
				{"What is a blue-green deployment?", "<p>Two identical environments; traffic is switched from the old one to the new one at once, and switched back to roll back.</p>"},
				{"How do you keep secrets out of pipeline logs?", ""},
			},
		},
	}
}
