package fooddata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"meal-lens/internal/config"
)

func TestLookup(t *testing.T) {
	t.Run("Hit", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("key") != "test_key" {
				t.Errorf("Expected key 'test_key', got '%s'", r.URL.Query().Get("key"))
			}
			if r.URL.Query().Get("label") != "guacamole" {
				t.Errorf("Expected label 'guacamole', got '%s'", r.URL.Query().Get("label"))
			}

			w.WriteHeader(http.StatusOK)
			fmt.Fprintln(w, `{
				"foods": [
					{"label": "guacamole", "calories": 160, "protein": 2.0, "carbs": 9.0, "fat": 15.0}
				]
			}`)
		}))
		defer server.Close()

		client := NewClient(&config.Config{
			FoodDataURL:        server.URL,
			FoodDataContentKey: "test_key",
		})

		profile, ok, err := client.Lookup(context.Background(), "guacamole")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if !ok {
			t.Fatal("Expected a hit")
		}
		if profile.Calories != 160 || profile.Fat != 15.0 {
			t.Errorf("Unexpected profile %+v", profile)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := NewClient(&config.Config{
			FoodDataURL:        server.URL,
			FoodDataContentKey: "test_key",
		})

		_, ok, err := client.Lookup(context.Background(), "nothing")
		if err != nil {
			t.Fatalf("Expected not-found without error, got %v", err)
		}
		if ok {
			t.Fatal("Expected a miss")
		}
	})

	t.Run("ServerError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := NewClient(&config.Config{
			FoodDataURL:        server.URL,
			FoodDataContentKey: "test_key",
		})

		_, _, err := client.Lookup(context.Background(), "guacamole")
		if err == nil {
			t.Fatal("Expected an error for non-200 status code, got nil")
		}
	})
}

func TestFetchTable(t *testing.T) {
	t.Run("JSON", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			fmt.Fprintln(w, `{
				"foods": [
					{"label": "guacamole", "calories": 160},
					{"label": "hummus", "calories": 166}
				]
			}`)
		}))
		defer server.Close()

		client := NewClient(&config.Config{
			FoodDataURL:        server.URL,
			FoodDataContentKey: "test_key",
		})

		table, err := client.FetchTable(context.Background())
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(table) != 2 {
			t.Fatalf("Expected 2 entries, got %d", len(table))
		}
		if table["hummus"].Calories != 166 {
			t.Errorf("Unexpected hummus profile %+v", table["hummus"])
		}
	})

	t.Run("HTML", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			fmt.Fprintln(w, `<html><body><table>
				<tr><th>Food</th><th>kcal</th><th>P</th><th>C</th><th>F</th><th>Fib</th><th>Sug</th><th>Na</th><th>Ca</th></tr>
				<tr><td>Guacamole</td><td>160</td><td>2.0</td><td>9.0</td><td>15.0</td><td>6.7</td><td>0.7</td><td>7</td><td>12</td></tr>
				<tr><td>Broken</td><td>not-a-number</td><td>1</td><td>1</td><td>1</td><td>1</td><td>1</td><td>1</td><td>1</td></tr>
			</table></body></html>`)
		}))
		defer server.Close()

		client := NewClient(&config.Config{
			FoodDataURL:        server.URL,
			FoodDataContentKey: "test_key",
		})

		table, err := client.FetchTable(context.Background())
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(table) != 1 {
			t.Fatalf("Expected 1 parseable row, got %d", len(table))
		}
		if table["guacamole"].Fiber != 6.7 {
			t.Errorf("Unexpected guacamole profile %+v", table["guacamole"])
		}
	})
}

func TestSubmitLabel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "FoodData ") {
			t.Errorf("Expected FoodData token auth, got '%s'", auth)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(&config.Config{
		FoodDataURL:      server.URL,
		FoodDataAdminKey: "keyid:6465616462656566",
	})

	if err := client.SubmitLabel(context.Background(), "zuppa misteriosa"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
}

func TestSubmitLabelBadAdminKey(t *testing.T) {
	client := NewClient(&config.Config{
		FoodDataURL:      "http://unused",
		FoodDataAdminKey: "not-a-pair",
	})

	if err := client.SubmitLabel(context.Background(), "x"); err == nil {
		t.Fatal("Expected an error for malformed admin key, got nil")
	}
}
