package utils

import (
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/hoodlink/server/models"
	"github.com/hoodlink/server/storage"
)

// StartUploadReconciler launches a background goroutine that periodically
// deletes stored images no row refers to anymore. Blobs younger than grace
// are left alone so in-flight uploads are never collected.
func StartUploadReconciler(db *gorm.DB, store storage.Storage, interval, grace time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	go func() {
		for {
			// Sleep first to avoid racing immediately at startup
			time.Sleep(interval)
			res, err := ReconcileUploads(db, store, grace)
			if err != nil {
				Sugar.Warnf("upload reconciler failed: %v", err)
				continue
			}
			if res.Removed > 0 {
				Sugar.Infof("upload reconciler removed %d orphan blobs", res.Removed)
			}
		}
	}()
}

// ReconcileResult summarizes one reconciliation pass.
type ReconcileResult struct {
	Removed  int
	Dangling []string // referenced keys with no stored blob
}

// ReconcileUploads runs a single pass: it deletes unreferenced blobs older than
// grace and reports rows whose blob is missing. Dangling rows are logged, never repaired.
func ReconcileUploads(db *gorm.DB, store storage.Storage, grace time.Duration) (ReconcileResult, error) {
	var res ReconcileResult
	referenced, err := referencedKeys(db)
	if err != nil {
		return res, err
	}

	cutoff := time.Now().Add(-grace)
	stored := make(map[string]bool)
	for _, prefix := range []string{storage.PostImagesPrefix, storage.ProfilePicturesPrefix} {
		objects, err := store.List(prefix)
		if err != nil {
			return res, err
		}
		for _, obj := range objects {
			stored[obj.Key] = true
			if referenced[obj.Key] || obj.ModTime.After(cutoff) {
				continue
			}
			if err := store.Delete(obj.Key); err != nil {
				Sugar.Warnf("delete orphan blob %s failed: %v", obj.Key, err)
				continue
			}
			res.Removed++
		}
	}

	for key := range referenced {
		if !stored[key] {
			res.Dangling = append(res.Dangling, key)
		}
	}
	sort.Strings(res.Dangling)
	for _, key := range res.Dangling {
		Sugar.Warnw("stored image missing for referenced key", "key", key)
	}
	return res, nil
}

func referencedKeys(db *gorm.DB) (map[string]bool, error) {
	var postKeys []string
	if err := db.Model(&models.PostImage{}).Where("storage_key <> ''").Pluck("storage_key", &postKeys).Error; err != nil {
		return nil, err
	}
	var profileKeys []string
	if err := db.Model(&models.User{}).Where("profile_pic_key IS NOT NULL AND profile_pic_key <> ''").Pluck("profile_pic_key", &profileKeys).Error; err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(postKeys)+len(profileKeys))
	for _, k := range postKeys {
		out[k] = true
	}
	for _, k := range profileKeys {
		out[k] = true
	}
	return out, nil
}
