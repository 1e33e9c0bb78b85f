package helpers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/golang-jwt/jwt/v5"
)

const (
	VehicleFolder = "vehicles"
	BrandFolder   = "brand"
)

type CustomClaims struct {
	Role        string `json:"role"`
	Email       string `json:"email"`
	AppMetadata struct {
		Provider  string   `json:"provider"`
		Providers []string `json:"providers"`
		Roles     []string `json:"roles,omitempty"`
	} `json:"app_metadata"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
	jwt.RegisteredClaims
}

func ValidateToken(tokenStr string) (*CustomClaims, error) {
	// Get Supabase URL from environment
	supabaseURL := os.Getenv("SUPABASE_URL")
	if supabaseURL == "" {
		return nil, errors.New("SUPABASE_URL not set")
	}

	// Construct JWKS URL
	jwksURL := fmt.Sprintf("%s/rest/v1/auth/jwks", supabaseURL)

	// Create a context with timeout for the JWKS request
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Create the JWKS from the remote URL
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		Ctx: ctx,
	})
	if err != nil {
		// Unverified parsing is only acceptable for local work without a
		// reachable JWKS endpoint; everywhere else a JWKS outage fails closed.
		if os.Getenv("ENVIRONMENT") != "development" {
			return nil, fmt.Errorf("failed to fetch JWKS: %v", err)
		}
		token, _, parseErr := jwt.NewParser().ParseUnverified(tokenStr, &CustomClaims{})
		if parseErr != nil {
			return nil, fmt.Errorf("JWKS validation failed and fallback parsing failed: %v", parseErr)
		}
		claims, ok := token.Claims.(*CustomClaims)
		if !ok {
			return nil, errors.New("invalid token claims")
		}
		return claims, nil
	}
	defer jwks.EndBackground()

	// Parse the JWT with JWKS validation
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, jwks.Keyfunc)
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %v", err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	return claims, nil
}

func IsPasswordStrong(password string) bool {
	if len(password) < 8 {
		return false
	}
	hasLower := regexp.MustCompile(`[a-z]`).MatchString(password)
	hasUpper := regexp.MustCompile(`[A-Z]`).MatchString(password)
	hasNumber := regexp.MustCompile(`\d`).MatchString(password)
	hasSpecial := regexp.MustCompile(`[@$!%*?&]`).MatchString(password)
	return hasLower && hasUpper && hasNumber && hasSpecial
}

// GenerateToken returns a 32-character hex token for email verification links.
func GenerateToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %v", err)
	}
	return hex.EncodeToString(buf), nil
}

func UploadImages(ctx context.Context, cld *cloudinary.Cloudinary, imageNames []string, imagePath string) ([]string, []string, error) {
	var urls []string
	var publicIDs []string

	for i, filePath := range imageNames {
		if strings.TrimSpace(filePath) == "" {
			fmt.Printf("Skipping empty image path at index %d\n", i)
			continue
		}
		uploadResult, err := cld.Upload.Upload(ctx, filePath, uploader.UploadParams{
			Folder: imagePath,
			Tags:   []string{"openroad"},
		})

		if err != nil {
			return nil, nil, fmt.Errorf("failed to upload image %s: %v", filePath, err)
		}

		urls = append(urls, uploadResult.SecureURL)
		publicIDs = append(publicIDs, uploadResult.PublicID)
	}

	return urls, publicIDs, nil
}

// DeleteImages removes previously uploaded assets. Used to clean up after a
// failed vehicle insert so the media library does not accumulate orphans.
func DeleteImages(ctx context.Context, cld *cloudinary.Cloudinary, publicIDs []string) {
	for _, id := range publicIDs {
		_, err := cld.Admin.DeleteAssets(ctx, admin.DeleteAssetsParams{
			PublicIDs: []string{id},
		})
		if err != nil {
			fmt.Printf("failed to delete asset %s: %v\n", id, err)
		}
	}
}
