package shadermount

import (
	"math/rand/v2"
	"sync"

	"github.com/gogpu/shadermount/internal/cache"
)

// UniformNoiseTexture is the builtin sampler bound to the shared noise
// texture when a program declares it.
const UniformNoiseTexture = "u_noiseTexture"

// NoiseTextureSize is the side length of the shared noise texture.
const NoiseTextureSize = 256

const noiseSeed = 0x5eed_0f_5ade

// resourceKey identifies a shared resource on one device.
type resourceKey struct {
	device any
	name   string
}

// sharedTextures holds device-wide read-only textures. Entries are created
// on first use and released with their last holder.
var sharedTextures = cache.NewShared[resourceKey, Texture](func(t Texture) {
	t.Release()
})

var (
	noiseOnce   sync.Once
	noisePixels *Pixels
)

// NoisePixels returns the deterministic RGBA noise used for the shared noise
// texture. Every channel is independent uniform noise. The result must not
// be modified.
func NoisePixels() *Pixels {
	noiseOnce.Do(func() {
		px := NewPixels(NoiseTextureSize, NoiseTextureSize)
		rng := rand.New(rand.NewPCG(noiseSeed, noiseSeed>>7))
		for i := 0; i < len(px.Data); i += 8 {
			v := rng.Uint64()
			for j := 0; j < 8; j++ {
				px.Data[i+j] = byte(v >> (8 * j))
			}
		}
		noisePixels = px
	})
	return noisePixels
}

// sharedNoise is an instance's reference to the noise texture.
type sharedNoise struct {
	binding *TextureBinding
	release func()
}

// acquireNoise takes a reference on the noise texture of ctx's device.
func acquireNoise(ctx Context) (*sharedNoise, error) {
	key := resourceKey{device: ctx.DeviceKey(), name: UniformNoiseTexture}
	tex, release, err := sharedTextures.Acquire(key, func() (Texture, error) {
		return ctx.CreateTexture(NoisePixels())
	})
	if err != nil {
		return nil, err
	}
	return &sharedNoise{
		binding: &TextureBinding{Texture: tex, Width: NoiseTextureSize, Height: NoiseTextureSize},
		release: release,
	}, nil
}
