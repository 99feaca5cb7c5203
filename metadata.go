package doccache

import "context"

var capabilities = Capabilities{
	AutomaticCleaning: true,
	Tags:              true,
	ExpiredRead:       true,
	Priority:          false,
	InfiniteLifetime:  true,
	GetList:           true,
}

// GetMetadatas is read-only: an expired record is reported as a miss but
// stays in the store until Load or Clean(CleanOld) reclaims it.
func (b *backend) GetMetadatas(ctx context.Context, id string) (Metadata, bool, error) {
	rec, ok, err := b.repo.FindByCacheID(ctx, id)
	if err != nil || !ok {
		return Metadata{}, false, err
	}
	md := Metadata{
		Expire:   rec.DateAdded,
		Tags:     uniqueTags(rec.Tags),
		MTime:    rec.DateAdded,
		Infinite: !rec.HasLifetime(),
	}
	if exp, ok := rec.Expiry(); ok {
		if !b.now().Before(exp) {
			return Metadata{}, false, nil
		}
		md.Expire = exp
	}
	return md, true, nil
}

// GetFillingPercentage is always 0; the store has no capacity to report against.
func (b *backend) GetFillingPercentage() int { return 0 }

func (b *backend) GetCapabilities() Capabilities { return capabilities }
