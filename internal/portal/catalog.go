package portal

import (
	"context"
	"log"
	"slices"
)

// AddMaterial stores a new, unapproved material at the front of the catalog.
func (p *Provider) AddMaterial(ctx context.Context, d Draft) Material {
	p.mu.Lock()
	defer p.mu.Unlock()

	material := Material{
		ID:           p.newID(),
		Title:        d.Title,
		Description:  d.Description,
		Subject:      d.Subject,
		Branch:       d.Branch,
		Year:         d.Year,
		Semester:     d.Semester,
		Type:         d.Type,
		FileURL:      d.FileURL,
		UploadedBy:   d.UploadedBy,
		UploaderName: d.UploaderName,
		CreatedAt:    p.now(),
		Size:         d.Size,
	}
	p.materials = slices.Insert(p.materials, 0, material)
	p.persistMaterials(ctx)
	log.Printf("material added id=%s uploader=%s type=%s", material.ID, material.UploadedBy, material.Type)
	return material
}

// ApproveMaterial marks a material approved. It reports whether the material exists.
func (p *Provider) ApproveMaterial(ctx context.Context, id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := p.materialIndex(id)
	if idx < 0 {
		return false
	}
	if p.materials[idx].IsApproved {
		return true
	}
	p.materials[idx].IsApproved = true
	p.persistMaterials(ctx)
	return true
}

// DeleteMaterial removes a material regardless of its approval state.
func (p *Provider) DeleteMaterial(ctx context.Context, id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := p.materialIndex(id)
	if idx < 0 {
		return false
	}
	p.materials = slices.Delete(p.materials, idx, idx+1)
	p.persistMaterials(ctx)
	return true
}

// ToggleLike flips the session's like on a material and moves its like counter
// with it. It returns the new membership and whether the material exists.
func (p *Provider) ToggleLike(ctx context.Context, id string) (liked bool, found bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := p.materialIndex(id)
	if idx < 0 {
		return false, false
	}
	if _, ok := p.liked[id]; ok {
		delete(p.liked, id)
		p.materials[idx].Likes = max(0, p.materials[idx].Likes-1)
	} else {
		p.liked[id] = struct{}{}
		p.materials[idx].Likes++
		liked = true
	}
	p.persistLikes(ctx)
	p.persistMaterials(ctx)
	return liked, true
}

// IsMaterialLiked reports whether the material is in the like-set.
func (p *Provider) IsMaterialLiked(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.liked[id]
	return ok
}

// DownloadMaterial counts a download and returns the file to deliver. Repeat
// downloads are counted every time.
func (p *Provider) DownloadMaterial(ctx context.Context, id string) (Delivery, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := p.materialIndex(id)
	if idx < 0 {
		return Delivery{}, false
	}
	p.materials[idx].Downloads++
	p.persistMaterials(ctx)
	return NewDelivery(p.materials[idx]), true
}
