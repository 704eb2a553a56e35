/*
Package ibcmemo builds and parses the ibc-hooks memos that trigger the entry point.

An ICS20 transfer whose memo carries a "wasm" object is turned by the ibc-hooks module on the
receiving chain into a contract execution. The entry point reads the message, swaps the received
coin and runs the post swap action. The memo for a swap that ends in a local transfer looks like:

	{
	  "wasm": {
	    "contract": "neutron1entrypoint",
	    "msg": {
	      "swap_and_action": {
	        "user_swap": {
	          "swap_exact_coin_in": {
	            "swap_venue_name": "neutron-astroport",
	            "operations": [
	              {"pool": "neutron1pool", "denom_in": "uatom", "denom_out": "untrn"}
	            ]
	          }
	        },
	        "min_coin": {"denom": "untrn", "amount": "1000"},
	        "timeout_timestamp": 1769791113913992700,
	        "post_swap_action": {"transfer": {"to_address": "neutron1receiver"}},
	        "affiliates": []
	      }
	    }
	  }
	}

When the coin has to pass through another chain before reaching the entry point, the wasm memo is
nested as the "next" field of a packet forward middleware hop:

	{
	  "forward": {
	    "channel": "channel-1",
	    "port": "transfer",
	    "receiver": "neutron1entrypoint",
	    "retries": 2,
	    "timeout": 1769791113913992700,
	    "next": {"wasm": {...}}
	  }
	}

The receiver of the hop that reaches the entry point chain must be the contract itself, ibc-hooks
rejects packets where they differ.
*/
package ibcmemo
