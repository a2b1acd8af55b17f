// User management CLI for go-pugblog
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/go-while/go-pugblog/internal/config"
	"github.com/go-while/go-pugblog/internal/database"
	"github.com/go-while/go-pugblog/internal/models"
	"github.com/joho/godotenv"
)

var appVersion = "-unset-"

func main() {
	config.AppVersion = appVersion
	log.Printf("go-pugblog User Manager (version: %s)", config.AppVersion)

	// Load optional .env file so -datadir defaults match the web server
	godotenv.Load()

	var (
		createUser  = flag.Bool("create", false, "Create a new user")
		listUsers   = flag.Bool("list", false, "List all users")
		deleteUser  = flag.Bool("delete", false, "Delete a user")
		updateUser  = flag.Bool("update", false, "Update a user's password, email or admin status")
		createGroup = flag.Bool("creategroup", false, "Create a new group")
		username    = flag.String("username", "", "Username for user operations")
		email       = flag.String("email", "", "Email for user creation or update")
		display     = flag.String("display", "", "Display name for user creation")
		admin       = flag.Bool("admin", false, "Grant admin permissions to user")
		revokeAdmin = flag.Bool("revokeadmin", false, "Revoke admin permissions from user (with -update)")
		title       = flag.String("title", "", "Title for group creation")
		slug        = flag.String("slug", "", "Slug for group creation (defaults from title)")
		description = flag.String("description", "", "Description for group creation")
		dataDir     = flag.String("datadir", "", "Directory for the SQLite database")
	)
	flag.Parse()

	if !*createUser && !*listUsers && !*deleteUser && !*updateUser && !*createGroup {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -create -username john -email john@example.com -display \"John Doe\"\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -create -username admin -email admin@example.com -admin\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -creategroup -title \"Cat Pictures\" -slug cats\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -list\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -update -username john\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -update -username john -email new@example.com\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -update -username john -admin\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -update -username john -revokeadmin\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -delete -username john\n", os.Args[0])
		os.Exit(1)
	}

	// Initialize database
	dbConfig := database.DefaultDBConfig()
	if *dataDir != "" {
		dbConfig.DataDir = *dataDir
	} else if envDir := os.Getenv("PUGBLOG_DATA"); envDir != "" {
		dbConfig.DataDir = envDir
	}
	db, err := database.OpenDatabase(dbConfig)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Shutdown()

	switch {
	case *createUser:
		if *username == "" {
			log.Fatal("Username is required for user creation")
		}
		if *email == "" {
			log.Fatal("Email is required for user creation")
		}
		if err := createNewUser(db, *username, *email, *display, *admin); err != nil {
			log.Fatalf("Failed to create user: %v", err)
		}

	case *listUsers:
		if err := listAllUsers(db); err != nil {
			log.Fatalf("Failed to list users: %v", err)
		}

	case *deleteUser:
		if *username == "" {
			log.Fatal("Username is required for user deletion")
		}
		if err := deleteExistingUser(db, *username); err != nil {
			log.Fatalf("Failed to delete user: %v", err)
		}

	case *updateUser:
		if *username == "" {
			log.Fatal("Username is required for user update")
		}
		if err := updateExistingUser(db, *username, *email, *admin, *revokeAdmin); err != nil {
			log.Fatalf("Failed to update user: %v", err)
		}

	case *createGroup:
		if *title == "" {
			log.Fatal("Title is required for group creation")
		}
		if err := createNewGroup(db, *title, *slug, *description); err != nil {
			log.Fatalf("Failed to create group: %v", err)
		}
	}
}

// readPasswordTwice prompts for a password with confirmation
func readPasswordTwice(prompt string) ([]byte, error) {
	fmt.Print(prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %v", err)
	}
	fmt.Println()

	fmt.Print("Confirm password: ")
	confirmPassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return nil, fmt.Errorf("failed to read password confirmation: %v", err)
	}
	fmt.Println()

	if string(password) != string(confirmPassword) {
		return nil, fmt.Errorf("passwords do not match")
	}

	if len(password) < 6 {
		return nil, fmt.Errorf("password must be at least 6 characters long")
	}

	return password, nil
}

func createNewUser(db *database.Database, username, email, displayName string, isAdmin bool) error {
	// Check if user already exists
	if _, err := db.GetUserByUsername(username); err == nil {
		return fmt.Errorf("user '%s' already exists", username)
	}

	// Check if email already exists
	if _, err := db.GetUserByEmail(email); err == nil {
		return fmt.Errorf("email '%s' already exists", email)
	}

	password, err := readPasswordTwice("Enter password: ")
	if err != nil {
		return err
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %v", err)
	}

	// Set display name to username if not provided
	if displayName == "" {
		displayName = username
	}

	// Create user
	user := &models.User{
		Username:     username,
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: string(hashedPassword),
	}

	if _, err := db.InsertUser(user); err != nil {
		return fmt.Errorf("failed to insert user: %v", err)
	}

	// Add admin permission if requested
	if isAdmin {
		if err := db.InsertUserPermission(user.ID, "admin"); err != nil {
			return fmt.Errorf("user created but failed to grant admin permission: %v", err)
		}
		fmt.Printf("Granted admin permission to '%s'\n", username)
	}

	fmt.Printf("User '%s' created successfully (ID: %d)\n", username, user.ID)

	return nil
}

func listAllUsers(db *database.Database) error {
	users, err := db.GetAllUsers()
	if err != nil {
		return fmt.Errorf("failed to get users: %v", err)
	}

	if len(users) == 0 {
		fmt.Println("No users found")
		return nil
	}

	fmt.Printf("Found %d users:\n\n", len(users))
	fmt.Printf("%-4s %-12s %-20s %-30s %-20s %s\n", "ID", "Perms", "Username", "Email", "Display Name", "Created")
	fmt.Printf("%-4s %-12s %-20s %-30s %-20s %s\n", "----", "-----", "--------", "-----", "------------", "-------")

	for _, user := range users {
		permsMark := "-"
		if perms, err := db.GetUserPermissions(user.ID); err == nil && len(perms) > 0 {
			names := make([]string, 0, len(perms))
			for _, p := range perms {
				names = append(names, p.Permission)
			}
			permsMark = strings.Join(names, ",")
		}
		if user.ID == 1 && !strings.Contains(permsMark, "admin") {
			permsMark = "admin" // first user is always admin
		}
		fmt.Printf("%-4d %-12s %-20s %-30s %-20s %s\n",
			user.ID,
			truncate(permsMark, 12),
			truncate(user.Username, 20),
			truncate(user.Email, 30),
			truncate(user.DisplayName, 20),
			user.CreatedAt.Format("2006-01-02 15:04"),
		)
	}

	return nil
}

func deleteExistingUser(db *database.Database, username string) error {
	// Check if user exists
	user, err := db.GetUserByUsername(username)
	if err != nil {
		return fmt.Errorf("user '%s' not found", username)
	}

	// Confirm deletion
	fmt.Printf("Are you sure you want to delete user '%s' (ID: %d)? [y/N]: ", username, user.ID)
	reader := bufio.NewReader(os.Stdin)
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))

	if response != "y" && response != "yes" {
		fmt.Println("User deletion cancelled")
		return nil
	}

	// Perform deletion
	if err := db.DeleteUser(user.ID); err != nil {
		return fmt.Errorf("failed to delete user: %v", err)
	}
	fmt.Printf("User '%s' (ID: %d) deleted\n", user.Username, user.ID)
	return nil
}

func updateExistingUser(db *database.Database, username, email string, grantAdmin, revokeAdmin bool) error {
	// Check if user exists
	user, err := db.GetUserByUsername(username)
	if err != nil {
		return fmt.Errorf("user '%s' not found", username)
	}

	if email != "" {
		if err := db.UpdateUserEmail(user.ID, email); err != nil {
			return fmt.Errorf("failed to update email: %v", err)
		}
		fmt.Printf("Email updated for user '%s'\n", username)
		return nil
	}

	if grantAdmin {
		if err := db.InsertUserPermission(user.ID, "admin"); err != nil {
			return fmt.Errorf("failed to grant admin permission: %v", err)
		}
		fmt.Printf("Granted admin permission to '%s'\n", username)
		return nil
	}

	if revokeAdmin {
		if err := db.RemoveUserPermission(user.ID, "admin"); err != nil {
			return fmt.Errorf("failed to revoke admin permission: %v", err)
		}
		fmt.Printf("Revoked admin permission from '%s'\n", username)
		return nil
	}

	password, err := readPasswordTwice(fmt.Sprintf("Enter new password for '%s': ", username))
	if err != nil {
		return err
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %v", err)
	}

	if err := db.UpdateUserPassword(user.ID, string(hashedPassword)); err != nil {
		return fmt.Errorf("failed to update password: %v", err)
	}

	// A reset clears any login lockout and ends the current session
	db.ResetLoginAttempts(user.ID)
	db.InvalidateUserSession(user.ID)

	fmt.Printf("Password updated for user '%s'\n", username)
	return nil
}

func createNewGroup(db *database.Database, title, slug, description string) error {
	if slug == "" {
		slug = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(title), " ", "-"))
	}

	group := &models.Group{
		Title:       title,
		Slug:        slug,
		Description: description,
	}
	if _, err := db.InsertGroup(group); err != nil {
		return fmt.Errorf("failed to insert group: %v", err)
	}

	fmt.Printf("Group '%s' created with slug '%s' (ID: %d)\n", title, slug, group.ID)
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
