//go:build gpu

package webgpu

// tileSize is the workgroup edge of the GEMM shader.
const tileSize = 16

// gemmShader computes C = alpha * op(A) * op(B) + beta * C with every
// matrix stored column-major, the way BLAS sgemm does.
// op(A) is rows×depth, op(B) is depth×cols, C is rows×cols.
// beta == 0 never reads C, so an uninitialized destination is fine.
const gemmShader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> c: array<f32>;

struct Params {
    rows: u32,
    cols: u32,
    depth: u32,
    lda: u32,
    ldb: u32,
    ldc: u32,
    trans_a: u32,
    trans_b: u32,
    alpha: f32,
    beta: f32,
    _pad0: u32,
    _pad1: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(16, 16)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let row = global_id.x;
    let col = global_id.y;

    if (row >= params.rows || col >= params.cols) {
        return;
    }

    var sum: f32 = 0.0;
    for (var p: u32 = 0u; p < params.depth; p = p + 1u) {
        var av: f32;
        if (params.trans_a == 0u) {
            av = a[row + p * params.lda];
        } else {
            av = a[p + row * params.lda];
        }
        var bv: f32;
        if (params.trans_b == 0u) {
            bv = b[p + col * params.ldb];
        } else {
            bv = b[col + p * params.ldb];
        }
        sum = sum + av * bv;
    }

    let idx = row + col * params.ldc;
    var out = params.alpha * sum;
    if (params.beta != 0.0) {
        out = out + params.beta * c[idx];
    }
    c[idx] = out;
}
`
